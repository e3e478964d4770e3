package reporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/stackgen-cli/envmode/internal/resolver"
)

func resolution(t *testing.T) *resolver.Resolution {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("API_KEY=base\nNAME=app\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.staging"), []byte("API_KEY=secret\n"), 0o644))

	r, err := resolver.Resolve("staging", resolver.Options{
		Dir:          dir,
		ModeEnvNames: []string{"MODE"},
		Lookup:       func(string) (string, bool) { return "", false },
	})
	require.NoError(t, err)
	return r
}

func TestFormatText(t *testing.T) {
	color.NoColor = true
	out, err := FormatText(resolution(t))
	require.NoError(t, err)

	assert.Contains(t, out, "Mode: staging")
	assert.Contains(t, out, "Variables with Overrides")
	assert.Contains(t, out, "→ ")
	assert.Contains(t, out, "Cleanly Resolved Variables")
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON(resolution(t))
	require.NoError(t, err)

	var decoded report
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "staging", decoded.Mode)
	require.Len(t, decoded.Variables, 3)

	api := decoded.Variables[0]
	assert.Equal(t, "API_KEY", api.Name)
	assert.Equal(t, "secret", api.FinalValue)
	assert.True(t, api.Overridden)
	assert.Equal(t, []string{"base"}, api.Conflicts)
	assert.Len(t, api.Chain, 2)

	mode := decoded.Variables[1]
	assert.Equal(t, "MODE", mode.Name)
	assert.Equal(t, "mode", mode.FinalFrom.Layer)
}

func TestFormatYAML(t *testing.T) {
	out, err := FormatYAML(resolution(t))
	require.NoError(t, err)

	var decoded report
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "staging", decoded.Mode)
	assert.Len(t, decoded.EnvFiles, 2)
}

func TestFormatDotenv(t *testing.T) {
	out, err := FormatDotenv(resolution(t))
	require.NoError(t, err)

	assert.Contains(t, out, `API_KEY="secret"`)
	assert.Contains(t, out, `MODE="staging"`)
	assert.Contains(t, out, `NAME="app"`)
}

func TestFormatMarkdown(t *testing.T) {
	out, err := FormatMarkdown(resolution(t))
	require.NoError(t, err)

	assert.Contains(t, out, "**Mode:** `staging`")
	assert.Contains(t, out, "| `API_KEY` | `secret` | .env.<mode> | Yes |")
}

func TestFormat_Unknown(t *testing.T) {
	_, err := Format("xml", resolution(t))
	assert.ErrorContains(t, err, `unknown format "xml"`)

	out, err := Format("", resolution(t))
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
