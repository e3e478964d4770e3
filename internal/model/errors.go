// Package model holds the error and exit code types shared by the envmode packages.
package model

import (
	"errors"
	"fmt"
)

// ExitCode is the process exit status envmode terminates with.
type ExitCode int

const (
	ExitSuccess ExitCode = 0

	// ExitConfigError covers every problem detected before a child process starts:
	// missing command, unknown flag, empty mode, malformed @= or placeholder.
	ExitConfigError ExitCode = 1

	// ExitCannotExecute is used when a command exists but could not be started.
	ExitCannotExecute ExitCode = 126

	// ExitCommandNotFound mirrors the shell convention for a command that could not be spawned.
	ExitCommandNotFound ExitCode = 127

	// ExitSignalBase is added to the signal number when a child is killed by a signal.
	ExitSignalBase ExitCode = 128
)

// CLIError is an error carrying the exit code the CLI should terminate with.
type CLIError struct {
	Code    ExitCode
	Message string
	// Hint is an optional remediation line printed under the message.
	Hint string
	Err  error
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewConfigError returns a configuration error.
func NewConfigError(format string, args ...interface{}) *CLIError {
	return &CLIError{Code: ExitConfigError, Message: fmt.Sprintf(format, args...)}
}

// WrapCLIError wraps err with an exit code and a message.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// WithHint returns e with its hint set.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// CodeOf returns the exit code carried by err. Errors that are not a CLIError map to
// ExitConfigError, nil maps to ExitSuccess.
func CodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return ExitConfigError
}
