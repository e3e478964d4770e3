package mode

import (
	"fmt"
	"os/exec"
	"strings"
)

// Variables consulted before asking git for the current branch. Hosted build
// environments often check out a detached commit and expose the branch here.
var branchEnvOverrides = []string{"VERCEL_GIT_COMMIT_REF", "BRANCH"}

// Branch returns the mode derived from the current branch: the part after the
// last "/" of the branch name. It returns "" when no branch can be determined.
func Branch(dir string, lookup LookupFunc) string {
	name := ""
	if lookup != nil {
		for _, key := range branchEnvOverrides {
			if v, ok := lookup(key); ok && v != "" {
				name = v
				break
			}
		}
	}
	if name == "" {
		out, err := runGit(dir, "rev-parse", "--abbrev-ref", "HEAD")
		if err != nil {
			return ""
		}
		name = strings.TrimSpace(out)
		// detached HEAD
		if name == "HEAD" {
			return ""
		}
	}
	return LastSegment(name)
}

// LastSegment returns the substring after the last "/".
func LastSegment(branch string) string {
	if i := strings.LastIndex(branch, "/"); i >= 0 {
		return branch[i+1:]
	}
	return branch
}

// runGit executes git with -C dir and returns stdout.
func runGit(dir string, args ...string) (string, error) {
	if dir == "" {
		dir = "."
	}
	fullArgs := append([]string{"-C", dir}, args...)

	// #nosec G204 -- arguments are fixed by the caller
	cmd := exec.Command("git", fullArgs...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("git %s failed: %s: %w", strings.Join(args, " "), msg, err)
		}
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}
