package environ

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestFromPairs(t *testing.T) {
	env := FromPairs([]string{"PATH=/bin", "EQ=a=b", "EMPTY=", "=skipped", "NOVALUE"})

	v, ok := env.Lookup("EQ")
	assert.True(t, ok)
	assert.Equal(t, "a=b", v)

	v, ok = env.Lookup("EMPTY")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = env.Lookup("NOVALUE")
	assert.False(t, ok)
}

func TestWith_DoesNotMutateReceiver(t *testing.T) {
	base := FromPairs([]string{"A=1"})
	next := base.With("A", "2").With("B", "3")

	assert.Equal(t, "1", base.Get("A"))
	assert.Equal(t, "", base.Get("B"))
	assert.Equal(t, "2", next.Get("A"))
	assert.Equal(t, "3", next.Get("B"))

	v, _ := next.LookupBase("A")
	assert.Equal(t, "1", v)
}

func TestMerge(t *testing.T) {
	env := FromPairs(nil).Merge(map[string]string{"Z": "z", "A": "a"})
	assert.Equal(t, map[string]string{"A": "a", "Z": "z"}, env.Overlay())
}

func TestEnviron(t *testing.T) {
	env := FromPairs([]string{"PATH=/bin", "HOME=/root"}).
		With("MODE", "production").
		With("HOME", "/home/app")

	want := []string{"HOME=/home/app", "PATH=/bin", "MODE=production"}
	if diff := cmp.Diff(want, env.Environ()); diff != "" {
		t.Errorf("Environ mismatch (-want +got):\n%s", diff)
	}
}

func TestNames(t *testing.T) {
	env := FromPairs([]string{"PATH=/bin", "HOME=/root"}).
		With("MODE", "qa").
		With("HOME", "/home/app")

	assert.Equal(t, []string{"HOME", "MODE", "PATH"}, env.Names())
}

func TestFromOS(t *testing.T) {
	t.Setenv("ENVMODE_FROM_OS", "snapshot")
	env := FromOS()
	t.Setenv("ENVMODE_FROM_OS", "changed")

	assert.Equal(t, "snapshot", env.Get("ENVMODE_FROM_OS"))
	assert.Empty(t, env.Overlay())
}
