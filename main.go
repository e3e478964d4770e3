package main

import "github.com/stackgen-cli/envmode/cmd"

func main() {
	cmd.Execute()
}
