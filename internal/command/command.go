// Package command splits the wrapped argument list into chained commands and runs them.
package command

import (
	"github.com/stackgen-cli/envmode/internal/model"
)

// Separator, as a lone argument, starts the next chained command.
const Separator = "~~"

// Spec is one command to execute.
type Spec struct {
	Name string
	Args []string
}

// Split partitions args on Separator. The arguments before the first
// separator belong to the first command, whose name is given separately; every
// later segment starts with its command name. An empty segment after a
// separator is an error.
func Split(args []string) ([]string, []Spec, error) {
	first := args
	var rest []Spec

	start := -1
	for i, arg := range args {
		if arg != Separator {
			continue
		}
		if start < 0 {
			first = args[:i]
		} else {
			spec, err := segment(args[start:i])
			if err != nil {
				return nil, nil, err
			}
			rest = append(rest, spec)
		}
		start = i + 1
	}
	if start >= 0 {
		spec, err := segment(args[start:])
		if err != nil {
			return nil, nil, err
		}
		rest = append(rest, spec)
	}

	return append([]string(nil), first...), rest, nil
}

func segment(s []string) (Spec, error) {
	if len(s) == 0 {
		return Spec{}, model.NewConfigError("no command specified after %s", Separator)
	}
	return Spec{Name: s[0], Args: append([]string{}, s[1:]...)}, nil
}
