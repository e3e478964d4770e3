// Package locator finds configuration files by walking up the directory tree.
package locator

import (
	"os"
	"path/filepath"
	"strings"
)

// Options controls an upward search.
type Options struct {
	// RootDir bounds the ascent. Directories outside RootDir are never searched.
	// Empty means the search may climb to the filesystem root.
	RootDir string

	// Predicate, when set, must accept a candidate path for it to count as a match.
	Predicate func(path string) bool
}

// Find returns the path of the first file matching one of names, checking startDir first
// and then each parent directory in turn. Names are tried in order within a directory.
func Find(startDir string, names []string, opts Options) (string, bool) {
	var found string
	walk(startDir, names, opts, func(path string) bool {
		found = path
		return false
	})
	return found, found != ""
}

// FindAll returns every match along the ancestor chain, innermost directory first.
func FindAll(startDir string, names []string, opts Options) []string {
	var found []string
	walk(startDir, names, opts, func(path string) bool {
		found = append(found, path)
		return true
	})
	return found
}

// Read returns the content of the first file Find would return. A missing file yields
// ok == false and no error; an error is only returned when a located file cannot be read.
func Read(startDir string, names []string, opts Options) (string, bool, error) {
	path, ok := Find(startDir, names, opts)
	if !ok {
		return "", false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// walk visits matches from startDir upwards until visit returns false or the ascent ends.
func walk(startDir string, names []string, opts Options, visit func(path string) bool) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return
	}

	root := ""
	if opts.RootDir != "" {
		root, err = filepath.Abs(opts.RootDir)
		if err != nil {
			return
		}
	}

	for {
		if root != "" && !Within(root, dir) {
			return
		}

		for _, name := range names {
			path := filepath.Join(dir, name)
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if opts.Predicate != nil && !opts.Predicate(path) {
				continue
			}
			if !visit(path) {
				return
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// Within reports whether dir is root or one of its descendants. Both must be absolute.
func Within(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
