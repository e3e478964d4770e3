package locator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tree creates root/app/web and returns the three directories.
func tree(t *testing.T) (root, app, web string) {
	t.Helper()
	root = t.TempDir()
	app = filepath.Join(root, "app")
	web = filepath.Join(app, "web")
	require.NoError(t, os.MkdirAll(web, 0o755))
	return root, app, web
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFind_StartDirFirst(t *testing.T) {
	root, _, web := tree(t)
	writeFile(t, filepath.Join(root, ".env"), "A=root")
	writeFile(t, filepath.Join(web, ".env"), "A=web")

	path, ok := Find(web, []string{".env"}, Options{})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(web, ".env"), path)
}

func TestFind_Ascends(t *testing.T) {
	root, _, web := tree(t)
	writeFile(t, filepath.Join(root, ".env"), "A=root")

	path, ok := Find(web, []string{".env"}, Options{RootDir: root})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, ".env"), path)
}

func TestFind_NamesInOrder(t *testing.T) {
	_, app, _ := tree(t)
	writeFile(t, filepath.Join(app, "b.env"), "")
	writeFile(t, filepath.Join(app, "a.env"), "")

	path, ok := Find(app, []string{"a.env", "b.env"}, Options{})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(app, "a.env"), path)
}

func TestFind_NeverAboveRoot(t *testing.T) {
	root, app, web := tree(t)
	writeFile(t, filepath.Join(root, ".env"), "A=root")

	_, ok := Find(web, []string{".env"}, Options{RootDir: app})
	assert.False(t, ok, "a file above the root must not be returned")
}

func TestFind_StartOutsideRoot(t *testing.T) {
	root, app, _ := tree(t)
	writeFile(t, filepath.Join(root, ".env"), "A=root")

	_, ok := Find(root, []string{".env"}, Options{RootDir: app})
	assert.False(t, ok)
}

func TestFind_SiblingPrefixIsNotInsideRoot(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "app")
	sibling := filepath.Join(base, "app-other")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.MkdirAll(sibling, 0o755))
	writeFile(t, filepath.Join(sibling, ".env"), "")

	_, ok := Find(sibling, []string{".env"}, Options{RootDir: root})
	assert.False(t, ok)
}

func TestFind_SkipsDirectories(t *testing.T) {
	root, app, _ := tree(t)
	require.NoError(t, os.Mkdir(filepath.Join(app, ".env"), 0o755))
	writeFile(t, filepath.Join(root, ".env"), "")

	path, ok := Find(app, []string{".env"}, Options{RootDir: root})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, ".env"), path)
}

func TestFind_Predicate(t *testing.T) {
	root, app, _ := tree(t)
	writeFile(t, filepath.Join(app, ".env"), "")
	writeFile(t, filepath.Join(root, ".env"), "")

	path, ok := Find(app, []string{".env"}, Options{
		RootDir: root,
		Predicate: func(p string) bool {
			return !strings.HasPrefix(p, app)
		},
	})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, ".env"), path)
}

func TestFind_NotFound(t *testing.T) {
	_, _, web := tree(t)
	_, ok := Find(web, []string{".does-not-exist"}, Options{RootDir: web})
	assert.False(t, ok)
}

func TestFindAll_InnermostFirst(t *testing.T) {
	root, app, web := tree(t)
	writeFile(t, filepath.Join(root, ".env"), "")
	writeFile(t, filepath.Join(web, ".env"), "")

	got := FindAll(web, []string{".env"}, Options{RootDir: root})
	want := []string{
		filepath.Join(web, ".env"),
		filepath.Join(root, ".env"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindAll mismatch (-want +got):\n%s", diff)
	}

	got = FindAll(web, []string{".env"}, Options{RootDir: app})
	if diff := cmp.Diff([]string{filepath.Join(web, ".env")}, got); diff != "" {
		t.Errorf("FindAll bounded by app (-want +got):\n%s", diff)
	}
}

func TestRead(t *testing.T) {
	root, _, web := tree(t)
	writeFile(t, filepath.Join(root, ".env.local"), "MODE_ENV=STAGE\n")

	content, ok, err := Read(web, []string{".env.local"}, Options{RootDir: root})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "MODE_ENV=STAGE\n", content)

	_, ok, err = Read(web, []string{".env.missing"}, Options{RootDir: root})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithin(t *testing.T) {
	sep := string(filepath.Separator)
	root := sep + filepath.Join("srv", "repo")

	tests := []struct {
		dir  string
		want bool
	}{
		{root, true},
		{filepath.Join(root, "pkg"), true},
		{filepath.Join(root, "..", "repo", "pkg"), true},
		{sep + "srv", false},
		{sep + filepath.Join("srv", "repo-two"), false},
		{sep + filepath.Join("srv", "..repo"), false},
	}
	for _, tc := range tests {
		if got := Within(root, filepath.Clean(tc.dir)); got != tc.want {
			t.Errorf("Within(%q, %q) = %v, want %v", root, tc.dir, got, tc.want)
		}
	}
}
