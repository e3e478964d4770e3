package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/stackgen-cli/envmode/internal/command"
)

// logger prints --verbose diagnostics.
type logger struct {
	w       io.Writer
	enabled bool
}

func (l *logger) printf(format string, args ...interface{}) {
	if !l.enabled {
		return
	}
	fmt.Fprintf(l.w, "%s %s\n", color.HiBlackString("[envmode]"), fmt.Sprintf(format, args...))
}

func (l *logger) warnf(format string, args ...interface{}) {
	if !l.enabled {
		return
	}
	fmt.Fprintf(l.w, "%s %s\n", color.YellowString("[envmode]"), fmt.Sprintf(format, args...))
}

func (l *logger) command(spec command.Spec) {
	if !l.enabled {
		return
	}
	argv := make([]string, 0, len(spec.Args)+1)
	argv = append(argv, strconv.Quote(spec.Name))
	for _, a := range spec.Args {
		argv = append(argv, strconv.Quote(a))
	}
	fmt.Fprintf(l.w, "%s %s %s\n", color.HiBlackString("[envmode]"), color.CyanString("exec"), strings.Join(argv, " "))
}
