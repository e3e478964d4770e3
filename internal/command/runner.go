package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/stackgen-cli/envmode/internal/model"
)

// Runner executes specs one after another.
type Runner struct {
	// Env is the complete child environment as KEY=VALUE pairs. Nil inherits the parent's.
	Env []string
	// Dir is the working directory of every child. Empty inherits the parent's.
	Dir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// KeepGoing runs the remaining commands after a failure. The first
	// failure is still reported.
	KeepGoing bool

	// OnStart is called before each command starts.
	OnStart func(Spec)
}

// Run executes specs in order. Without KeepGoing it stops at the first
// failing command. The returned error is a *model.CLIError carrying the
// child's exit status.
func (r *Runner) Run(ctx context.Context, specs []Spec) error {
	var first error
	for _, spec := range specs {
		if err := r.run(ctx, spec); err != nil {
			if !r.KeepGoing {
				return err
			}
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (r *Runner) run(ctx context.Context, spec Spec) error {
	if r.OnStart != nil {
		r.OnStart(spec)
	}

	path, err := r.lookPath(spec.Name)
	if err != nil {
		return exitError(spec, err)
	}

	// #nosec G204 -- running the user's command is the point
	cmd := exec.CommandContext(ctx, path, spec.Args...)
	cmd.Args[0] = spec.Name
	cmd.Env = r.Env
	cmd.Dir = r.Dir
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		return exitError(spec, err)
	}
	return nil
}

// lookPath finds name in the PATH of the child environment. Without an Env,
// or a PATH in it, the parent's PATH is searched. Relative PATH entries are
// ignored, as exec.LookPath does since they would resolve against the
// working directory.
func (r *Runner) lookPath(name string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) {
		return name, nil
	}
	pathList, ok := envValue(r.Env, "PATH")
	if !ok {
		return exec.LookPath(name)
	}
	for _, dir := range filepath.SplitList(pathList) {
		if !filepath.IsAbs(dir) {
			continue
		}
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

func envValue(env []string, key string) (string, bool) {
	for i := len(env) - 1; i >= 0; i-- {
		if k, v, ok := strings.Cut(env[i], "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

func exitError(spec Spec, err error) *model.CLIError {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return model.WrapCLIError(
				model.ExitSignalBase+model.ExitCode(ws.Signal()),
				fmt.Sprintf("command %q terminated by signal %v", spec.Name, ws.Signal()),
				nil,
			)
		}
		return model.WrapCLIError(
			model.ExitCode(ee.ExitCode()),
			fmt.Sprintf("command %q exited with status %d", spec.Name, ee.ExitCode()),
			nil,
		)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return model.WrapCLIError(model.ExitCommandNotFound, fmt.Sprintf("command %q not found", spec.Name), err)
	}
	return model.WrapCLIError(model.ExitCannotExecute, fmt.Sprintf("command %q could not be started", spec.Name), err)
}
