// Package settings reads the keys that configure envmode itself from the
// environment and from the project's .env files.
package settings

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-envparse"

	"github.com/stackgen-cli/envmode/internal/locator"
)

const (
	// KeyRootFolder names the folder bounding the upward .env search.
	KeyRootFolder = "ENV_ROOT_FOLDER"
	// KeyModeEnv names the variable(s) the mode is read from and written back to.
	KeyModeEnv = "MODE_ENV"
	// KeyEnvMode is accepted as an alias of KeyModeEnv.
	KeyEnvMode = "ENV_MODE"

	// RootEnvFile holds a bare root folder path as its whole content.
	RootEnvFile = ".root.env"
)

// LookupFunc reads a variable from the process environment.
type LookupFunc func(key string) (string, bool)

// RootFolder returns the absolute search root. Precedence: flag, the
// ENV_ROOT_FOLDER variable, the content of .root.env, then ENV_ROOT_FOLDER
// declared in .env.local or .env, all read from dir. Relative values are
// resolved against dir; without any setting the root is dir itself.
func RootFolder(dir, flag string, lookup LookupFunc) string {
	folder := flag
	if folder == "" {
		if v, ok := lookup(KeyRootFolder); ok && v != "" {
			folder = v
		}
	}
	if folder == "" {
		folder = rootFromFiles(dir)
	}
	if folder == "" {
		folder = dir
	}
	if !filepath.IsAbs(folder) {
		folder = filepath.Join(dir, folder)
	}
	abs, err := filepath.Abs(folder)
	if err != nil {
		return folder
	}
	return abs
}

func rootFromFiles(dir string) string {
	if data, err := os.ReadFile(filepath.Join(dir, RootEnvFile)); err == nil {
		if v := strings.TrimSpace(string(data)); v != "" {
			return v
		}
	}
	for _, name := range []string{".env.local", ".env"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if v := Parse(string(data))[KeyRootFolder]; v != "" {
			return v
		}
	}
	return ""
}

// DeclaredModeEnv returns the mode variable names declared by MODE_ENV (or
// ENV_MODE) in the nearest .env and .env.local between dir and root, with
// .env.local taking priority. It returns nil when neither declares one.
func DeclaredModeEnv(dir, root string) []string {
	var declared string
	for _, name := range []string{".env", ".env.local"} {
		content, ok, err := locator.Read(dir, []string{name}, locator.Options{RootDir: root})
		if err != nil || !ok {
			continue
		}
		values := Parse(content)
		if v := values[KeyModeEnv]; v != "" {
			declared = v
		} else if v := values[KeyEnvMode]; v != "" {
			declared = v
		}
	}
	return SplitNames(declared)
}

// Parse reads dotenv content, returning nil when it is malformed. Only used
// for the optional settings probe; the cascade loader reports parse errors.
func Parse(content string) map[string]string {
	values, err := envparse.Parse(strings.NewReader(content))
	if err != nil {
		return nil
	}
	return values
}

// SplitNames splits a comma-separated list of variable names, dropping blanks.
func SplitNames(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}
