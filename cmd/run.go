package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackgen-cli/envmode/internal/command"
	"github.com/stackgen-cli/envmode/internal/environ"
	"github.com/stackgen-cli/envmode/internal/mode"
	"github.com/stackgen-cli/envmode/internal/model"
	"github.com/stackgen-cli/envmode/internal/placeholder"
	"github.com/stackgen-cli/envmode/internal/reporter"
	"github.com/stackgen-cli/envmode/internal/resolver"
	"github.com/stackgen-cli/envmode/internal/settings"
)

func (a *app) run(cmd *cobra.Command, opts *options, args []string) error {
	out := cmd.OutOrStdout()
	log := &logger{w: out, enabled: opts.verbose}

	dir := a.dir
	if dir == "" {
		dir = "."
	}
	base := environ.FromOS()
	if a.environ != nil {
		base = environ.FromPairs(a.environ())
	}

	inspecting := opts.explain || opts.compare != ""
	if len(args) == 0 && !inspecting {
		return model.NewConfigError("no command specified").
			WithHint("usage: " + cmd.UseLine())
	}
	var name string
	var cmdArgs []string
	if len(args) > 0 {
		name, cmdArgs = args[0], args[1:]
	}

	// mode
	var explicit, embedded *string
	if cmd.Flags().Changed("mode") {
		explicit = &opts.mode
	}
	if !opts.noParse {
		var err error
		cmdArgs, embedded, err = mode.ScanToken(cmdArgs, explicit != nil)
		if err != nil {
			return err
		}
	}

	root := settings.RootFolder(dir, opts.root, base.LookupBase)
	envNames := mode.EnvNames(opts.modeEnv, base.LookupBase, settings.DeclaredModeEnv(dir, root))

	resolved, err := mode.Resolve(mode.Inputs{
		Explicit: explicit,
		Embedded: embedded,
		EnvNames: envNames,
		Lookup:   base.LookupBase,
		UseGit:   opts.git,
		Branch:   func() string { return mode.Branch(dir, base.LookupBase) },
		Default:  opts.defaultMode,
	})
	if err != nil {
		return err
	}
	log.printf("mode %q (from %s)", resolved.Mode, resolved.Source)
	log.printf("mode variables: %v", envNames)
	log.printf("root folder: %s", root)

	// env cascade
	loadOpts := resolver.Options{
		Dir:            dir,
		RootDir:        root,
		DefaultEnvFile: opts.envFile,
		ModeEnvNames:   envNames,
		Lookup:         base.LookupBase,
		Override:       opts.override,
		Lenient:        opts.lenient,
	}
	resolution, err := resolver.Resolve(resolved.Mode, loadOpts)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "loading env files", err)
	}
	for _, f := range resolution.EnvFiles {
		log.printf("loaded %s", f)
	}
	for _, w := range resolution.Warnings {
		log.warnf("%s", w)
	}

	if inspecting {
		return a.explain(cmd, opts, resolution, loadOpts)
	}

	env := base.Merge(resolution.Env())

	specs, env, err := buildSpecs(name, cmdArgs, env, opts.noParse)
	if err != nil {
		return err
	}
	overlay := env.Overlay()
	for _, key := range env.Names() {
		if _, ok := overlay[key]; ok {
			log.printf("set %s", key)
		}
	}

	runner := &command.Runner{
		Env:       env.Environ(),
		Dir:       a.dir,
		Stdin:     cmd.InOrStdin(),
		Stdout:    out,
		Stderr:    cmd.ErrOrStderr(),
		KeepGoing: opts.keepGoing,
		OnStart:   log.command,
	}
	return runner.Run(cmd.Context(), specs)
}

// buildSpecs applies @= assignments, splits the chain on ~~ and substitutes
// placeholders. With noParse the arguments are used verbatim as one command.
func buildSpecs(name string, args []string, env environ.Env, noParse bool) ([]command.Spec, environ.Env, error) {
	if noParse {
		return []command.Spec{{Name: name, Args: args}}, env, nil
	}

	args, assigns, err := placeholder.ExtractAssignments(args)
	if err != nil {
		return nil, env, err
	}
	for _, as := range assigns {
		env = env.With(as.Name, as.Value)
	}

	first, rest, err := command.Split(args)
	if err != nil {
		return nil, env, err
	}
	specs := append([]command.Spec{{Name: name, Args: first}}, rest...)

	for i := range specs {
		if i > 0 {
			// the first name is the wrapped command itself and stays verbatim
			specs[i].Name, err = placeholder.Substitute(specs[i].Name, env.Get)
			if err != nil {
				return nil, env, suggest(err, env)
			}
		}
		specs[i].Args, err = placeholder.SubstituteAll(specs[i].Args, env.Get)
		if err != nil {
			return nil, env, suggest(err, env)
		}
	}
	return specs, env, nil
}

// suggest adds a "did you mean" hint to an unresolved placeholder error.
func suggest(err error, env environ.Env) error {
	var unresolved *placeholder.UnresolvedError
	if errors.As(err, &unresolved) {
		unresolved.Suggest(env.Names())
	}
	return err
}

func (a *app) explain(cmd *cobra.Command, opts *options, r *resolver.Resolution, loadOpts resolver.Options) error {
	out := cmd.OutOrStdout()

	if opts.compare != "" {
		other, err := resolver.Resolve(opts.compare, loadOpts)
		if err != nil {
			return model.WrapCLIError(model.ExitConfigError, "loading env files for "+opts.compare, err)
		}
		fmt.Fprint(out, resolver.FormatCompare(resolver.Compare(r, other)))
		return nil
	}

	text, err := reporter.Format(opts.format, r)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "formatting report", err)
	}
	fmt.Fprintln(out, text)
	return nil
}
