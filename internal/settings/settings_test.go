package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRootFolder_DefaultsToDir(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, RootFolder(dir, "", noEnv))
}

func TestRootFolder_Precedence(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "pkg", "api")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	write(t, dir, ".env", "ENV_ROOT_FOLDER=../../..\n")
	assert.Equal(t, filepath.Dir(base), RootFolder(dir, "", noEnv))

	write(t, dir, ".env.local", "ENV_ROOT_FOLDER=../..\n")
	assert.Equal(t, base, RootFolder(dir, "", noEnv))

	write(t, dir, RootEnvFile, "..\n")
	assert.Equal(t, filepath.Join(base, "pkg"), RootFolder(dir, "", noEnv))

	lookup := envOf(map[string]string{KeyRootFolder: base})
	assert.Equal(t, base, RootFolder(dir, "", lookup))

	assert.Equal(t, dir, RootFolder(dir, ".", lookup))
}

func TestDeclaredModeEnv(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "web")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	assert.Nil(t, DeclaredModeEnv(dir, root))

	write(t, root, ".env", "MODE_ENV=STAGE\n")
	assert.Equal(t, []string{"STAGE"}, DeclaredModeEnv(dir, root))

	// bounded: the root's .env is invisible when the root is dir
	assert.Nil(t, DeclaredModeEnv(dir, dir))

	write(t, dir, ".env.local", "ENV_MODE=DEPLOY_ENV,NODE_ENV\n")
	assert.Equal(t, []string{"DEPLOY_ENV", "NODE_ENV"}, DeclaredModeEnv(dir, root))
}

func TestParse_Malformed(t *testing.T) {
	assert.Nil(t, Parse("this line has no separator\n"))
	assert.Equal(t, map[string]string{"A": "1"}, Parse("# comment\nA=1\n"))
}

func TestSplitNames(t *testing.T) {
	assert.Equal(t, []string{"MODE", "STAGE"}, SplitNames(" MODE, ,STAGE "))
	assert.Nil(t, SplitNames(""))
}
