// Package resolver loads the mode-layered .env cascade and tracks where every value came from
package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-envparse"

	"github.com/stackgen-cli/envmode/internal/locator"
)

// Local is the mode that skips mode-specific files.
const Local = "local"

// Layer represents the source layer of an environment variable
type Layer int

const (
	LayerDefaultFile Layer = iota
	LayerEnv
	LayerEnvLocal
	LayerEnvMode
	LayerEnvModeLocal
	LayerOSEnv
	LayerMode
)

func (l Layer) String() string {
	switch l {
	case LayerDefaultFile:
		return "default file"
	case LayerEnv:
		return ".env"
	case LayerEnvLocal:
		return ".env.local"
	case LayerEnvMode:
		return ".env.<mode>"
	case LayerEnvModeLocal:
		return ".env.<mode>.local"
	case LayerOSEnv:
		return "OS environment"
	case LayerMode:
		return "mode"
	default:
		return "unknown"
	}
}

// ModeFile reports whether the layer is one of the .env.<mode> files.
func (l Layer) ModeFile() bool {
	return l == LayerEnvMode || l == LayerEnvModeLocal
}

// Source represents where a variable value came from
type Source struct {
	Layer Layer
	File  string
	Value string
	Raw   string // value before expansion, when expansion changed it
}

// Variable represents a resolved environment variable
type Variable struct {
	Name       string
	FinalValue string
	FinalFrom  Source
	Chain      []Source // in the order the cascade applied them
	Overridden bool
	Conflicts  []string
}

// Resolution is the complete resolution result
type Resolution struct {
	Mode      string
	Path      string
	Variables []*Variable // first-seen order
	ByName    map[string]*Variable
	EnvFiles  []string
	Undefined []string // referenced by a value but set nowhere
	Warnings  []string
}

// LookupFunc reads a variable from the process environment.
type LookupFunc func(key string) (string, bool)

// Options for resolution
type Options struct {
	// Dir is where the search for each file starts. Defaults to ".".
	Dir string
	// RootDir bounds the upward search. Defaults to Dir.
	RootDir string
	// DefaultEnvFile is loaded before .env with the lowest precedence.
	DefaultEnvFile string
	// ModeEnvNames are force-set to the mode after loading.
	ModeEnvNames []string
	// Lookup reads the process environment. Defaults to os.LookupEnv.
	Lookup LookupFunc
	// Override lets file values replace variables already in the process environment.
	Override bool
	// Lenient turns malformed files into warnings instead of errors.
	Lenient bool
}

// ParseError reports a malformed env file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid env file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type envFile struct {
	name  string
	layer Layer
}

// EnvFileSet returns the file names loaded for mode, lowest precedence first.
func EnvFileSet(mode, defaultFile string) []string {
	files := envFiles(mode, defaultFile)
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	return names
}

func envFiles(mode, defaultFile string) []envFile {
	var files []envFile
	if defaultFile != "" {
		files = append(files, envFile{defaultFile, LayerDefaultFile})
	}
	files = append(files,
		envFile{".env", LayerEnv},
		envFile{".env.local", LayerEnvLocal},
	)
	if mode != "" && mode != Local {
		files = append(files,
			envFile{".env." + mode, LayerEnvMode},
			envFile{".env." + mode + ".local", LayerEnvModeLocal},
		)
	}
	return files
}

// Resolve loads the cascade for mode. The process environment is only read, never written.
func Resolve(mode string, opts Options) (*Resolution, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.RootDir == "" {
		opts.RootDir = opts.Dir
	}
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}

	root, err := filepath.Abs(opts.RootDir)
	if err != nil {
		return nil, err
	}

	r := &Resolution{
		Mode:     mode,
		Path:     root,
		ByName:   make(map[string]*Variable),
		Warnings: []string{},
	}

	// 1. Locate and parse every file; outermost directories first, so the
	// file closest to Dir wins within a name.
	for _, ef := range envFiles(mode, opts.DefaultEnvFile) {
		paths := locator.FindAll(opts.Dir, []string{ef.name}, locator.Options{RootDir: root})
		for i := len(paths) - 1; i >= 0; i-- {
			path := paths[i]
			if err := r.parseEnvFile(path, ef.layer); err != nil {
				var perr *ParseError
				if opts.Lenient && errors.As(err, &perr) {
					r.Warnings = append(r.Warnings, err.Error())
					continue
				}
				return nil, err
			}
			r.EnvFiles = append(r.EnvFiles, path)
		}
	}

	// 2. Values already in the process environment win unless overriding.
	if !opts.Override {
		for _, v := range r.Variables {
			if value, ok := opts.Lookup(v.Name); ok {
				r.addSource(v.Name, Source{Layer: LayerOSEnv, File: "environment", Value: value})
			}
		}
	}

	// 3. Expand references, resolving referenced keys first.
	r.expand(opts.Lookup, opts.Override)

	// 4. The mode is written back under every mode variable name.
	for _, name := range opts.ModeEnvNames {
		r.addSource(name, Source{Layer: LayerMode, Value: mode})
	}

	for _, v := range r.Variables {
		r.finalize(v)
	}

	return r, nil
}

// Env returns the resolved variables as a fresh map.
func (r *Resolution) Env() map[string]string {
	env := make(map[string]string, len(r.Variables))
	for _, v := range r.Variables {
		env[v.Name] = v.FinalValue
	}
	return env
}

// Names returns the variable names sorted alphabetically.
func (r *Resolution) Names() []string {
	names := make([]string, 0, len(r.Variables))
	for _, v := range r.Variables {
		names = append(names, v.Name)
	}
	sort.Strings(names)
	return names
}

func (r *Resolution) finalize(v *Variable) {
	if len(v.Chain) == 0 {
		return
	}
	v.FinalFrom = v.Chain[len(v.Chain)-1]
	v.FinalValue = v.FinalFrom.Value

	// Check for conflicts (different values)
	v.Overridden = false
	v.Conflicts = nil
	seen := make(map[string]bool)
	for _, src := range v.Chain {
		if src.Value != v.FinalValue && !seen[src.Value] {
			seen[src.Value] = true
			v.Conflicts = append(v.Conflicts, src.Value)
		}
	}
	v.Overridden = len(v.Conflicts) > 0
}

func (r *Resolution) parseEnvFile(path string, layer Layer) error {
	file, err := os.Open(path)
	if err != nil {
		// the file vanished or is unreadable: it contributes nothing
		r.Warnings = append(r.Warnings, fmt.Sprintf("Error reading %s: %v", path, err))
		return nil
	}
	defer file.Close()

	values, err := envparse.Parse(file)
	if err != nil {
		return &ParseError{Path: path, Err: err}
	}

	// envparse returns a map; keep a stable order for keys new to this file.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		r.addSource(key, Source{
			Layer: layer,
			File:  path,
			Value: values[key],
		})
	}
	return nil
}

func (r *Resolution) addSource(name string, src Source) {
	v, ok := r.ByName[name]
	if !ok {
		v = &Variable{Name: name}
		r.ByName[name] = v
		r.Variables = append(r.Variables, v)
	}
	v.Chain = append(v.Chain, src)
	v.FinalFrom = src
	v.FinalValue = src.Value
}
