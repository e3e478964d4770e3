package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stackgen-cli/envmode/internal/model"
	"github.com/stackgen-cli/envmode/internal/reporter"
)

var version = "dev"

// options holds the parsed flags of one invocation.
type options struct {
	mode        string
	modeEnv     []string
	defaultMode string
	git         bool
	noParse     bool
	verbose     bool
	root        string
	envFile     string
	keepGoing   bool
	override    bool
	lenient     bool
	explain     bool
	format      string
	compare     string
}

// app carries the process-level inputs so tests can run the CLI against a
// fixture directory and a controlled environment.
type app struct {
	// dir is the working directory for the env search and the children. Empty means the current one.
	dir string
	// environ returns the base environment. Defaults to os.Environ.
	environ func() []string
}

func newRootCmd(a *app) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "envmode [flags] <command> [args...] [~~ <command> [args...]]...",
		Short: "Run commands with a mode-layered .env cascade",
		Long: `envmode resolves a mode, loads the matching .env files and runs a command with them.

Files are layered, later ones overriding earlier ones:
  - .env
  - .env.local
  - .env.<mode>          (unless mode is "local")
  - .env.<mode>.local    (unless mode is "local")

The mode comes from -m, a lone "@@ <mode>" argument, the MODE variable
(see -n and MODE_ENV), the git branch with --git, -d, or defaults to "local".

Arguments of the command may reference variables:
  @@NAME@@                 value of NAME (an error if unset)
  @@A,B@:default@:suffix   first non-empty of A and B, else default, then suffix
  @@DB_:STAGE:_URL@@       name composed from the value of STAGE
  @=NAME=VALUE             set NAME for the command, removed from the arguments
  ~~                       start another command, run after the previous one`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, opts, args)
		},
	}

	flags := rootCmd.Flags()
	// the first non-flag argument starts the wrapped command
	flags.SetInterspersed(false)

	flags.StringVarP(&opts.mode, "mode", "m", "", "mode to load, overrides every other source")
	flags.StringSliceVarP(&opts.modeEnv, "mode-env", "n", nil, "variable(s) the mode is read from and written to (default MODE)")
	flags.StringVarP(&opts.defaultMode, "default-mode", "d", "", "mode used when none is found (default local)")
	flags.BoolVar(&opts.git, "git", false, "derive the mode from the current git branch")
	flags.BoolVarP(&opts.noParse, "no-parse", "P", false, "pass command arguments through verbatim")
	flags.BoolVar(&opts.verbose, "verbose", false, "print resolution and execution details")
	flags.StringVarP(&opts.root, "root", "r", "", "folder bounding the upward .env search (default ENV_ROOT_FOLDER or the current folder)")
	flags.StringVarP(&opts.envFile, "env-file", "e", "", "extra env file loaded before .env")
	flags.BoolVarP(&opts.keepGoing, "keep-going", "k", false, "run the remaining chained commands after a failure")
	flags.BoolVar(&opts.override, "override", false, "let env files override variables already set in the environment")
	flags.BoolVar(&opts.lenient, "lenient", false, "skip malformed env files instead of failing")
	flags.BoolVar(&opts.explain, "explain", false, "print the resolved environment instead of running a command")
	flags.StringVar(&opts.format, "format", reporter.FormatNameText, "output format for --explain: "+strings.Join(reporter.Formats, ", "))
	flags.StringVar(&opts.compare, "compare", "", "with --explain, compare the resolved mode against another mode")

	return rootCmd
}

// Execute runs the CLI and exits with the resulting status.
func Execute() {
	rootCmd := newRootCmd(&app{})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		os.Exit(int(model.CodeOf(err)))
	}
}

func printError(w io.Writer, err error) {
	red := color.New(color.FgRed)
	red.Fprint(w, "Error: ")
	fmt.Fprintln(w, err.Error())

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) && cliErr.Hint != "" {
		fmt.Fprintf(w, "  %s\n", cliErr.Hint)
	}
}
