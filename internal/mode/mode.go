// Package mode decides which environment profile an invocation runs under.
package mode

import (
	"github.com/stackgen-cli/envmode/internal/model"
	"github.com/stackgen-cli/envmode/internal/settings"
)

const (
	// Local is the mode that loads no mode-specific files.
	Local = "local"

	// DefaultEnvName is the variable the mode is read from when nothing else is configured.
	DefaultEnvName = "MODE"

	// Token, as a lone argument, makes the next argument the mode.
	Token = "@@"
)

// Source identifies where the resolved mode came from.
type Source int

const (
	SourceFlag Source = iota
	SourceToken
	SourceEnv
	SourceGit
	SourceDefault
	SourceFallback
)

func (s Source) String() string {
	switch s {
	case SourceFlag:
		return "-m flag"
	case SourceToken:
		return "@@ argument"
	case SourceEnv:
		return "environment"
	case SourceGit:
		return "git branch"
	case SourceDefault:
		return "-d flag"
	case SourceFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// LookupFunc reads a variable from the process environment.
type LookupFunc func(key string) (string, bool)

// BranchFunc returns the current branch name, or "" when there is none.
type BranchFunc func() string

// Inputs gathers every candidate source of the mode. Nil pointers mean "not supplied",
// which is different from a supplied empty string.
type Inputs struct {
	Explicit *string
	Embedded *string
	EnvNames []string
	Lookup   LookupFunc
	UseGit   bool
	Branch   BranchFunc
	Default  string
}

// Resolution is the resolved mode.
type Resolution struct {
	Mode   string
	Source Source
	// EnvName is set when Source is SourceEnv.
	EnvName string
}

// Resolve applies the precedence: -m flag, @@ argument, mode variable, git
// branch (with --git), -d flag, then "local".
func Resolve(in Inputs) (Resolution, error) {
	if in.Explicit != nil {
		if *in.Explicit == "" {
			return Resolution{}, model.NewConfigError("mode has been specified with -m, but it is empty")
		}
		return Resolution{Mode: *in.Explicit, Source: SourceFlag}, nil
	}

	if in.Embedded != nil {
		if *in.Embedded == "" {
			return Resolution{}, model.NewConfigError("mode has been specified as argument after %s, but it is empty", Token)
		}
		return Resolution{Mode: *in.Embedded, Source: SourceToken}, nil
	}

	if in.Lookup != nil {
		for _, name := range in.EnvNames {
			if v, ok := in.Lookup(name); ok && v != "" {
				return Resolution{Mode: v, Source: SourceEnv, EnvName: name}, nil
			}
		}
	}

	if in.UseGit && in.Branch != nil {
		if branch := in.Branch(); branch != "" {
			return Resolution{Mode: branch, Source: SourceGit}, nil
		}
	}

	if in.Default != "" {
		return Resolution{Mode: in.Default, Source: SourceDefault}, nil
	}
	return Resolution{Mode: Local, Source: SourceFallback}, nil
}

// EnvNames returns the candidate mode variable names. Precedence: the -n flag,
// MODE_ENV (or ENV_MODE) in the process environment, the names declared in the
// .env files, then MODE. Every level accepts a comma-separated list.
func EnvNames(flag []string, lookup LookupFunc, declared []string) []string {
	var names []string
	for _, f := range flag {
		names = append(names, settings.SplitNames(f)...)
	}
	if len(names) > 0 {
		return names
	}

	if lookup != nil {
		for _, key := range []string{settings.KeyModeEnv, settings.KeyEnvMode} {
			if v, ok := lookup(key); ok {
				if names = settings.SplitNames(v); len(names) > 0 {
					return names
				}
			}
		}
	}

	if len(declared) > 0 {
		return declared
	}
	return []string{DefaultEnvName}
}

// ScanToken removes every lone @@ argument together with the argument that
// follows it and returns the last such value. A trailing @@ without a value is
// an error unless haveMode is set, in which case it is dropped.
func ScanToken(args []string, haveMode bool) ([]string, *string, error) {
	var (
		rest  = make([]string, 0, len(args))
		value *string
	)
	for i := 0; i < len(args); i++ {
		if args[i] != Token {
			rest = append(rest, args[i])
			continue
		}
		if i+1 >= len(args) {
			if haveMode {
				break
			}
			return nil, nil, model.NewConfigError("expected a mode after %s", Token).
				WithHint("the argument following a lone @@ sets the mode, e.g. `@@ production`")
		}
		v := args[i+1]
		value = &v
		i++
	}
	return rest, value, nil
}
