package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriteJSON(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	require.NoError(t, AtomicWriteJSON(path, map[string]int{"a": 1}))
	require.NoError(t, AtomicWriteJSON(path, map[string]int{"b": 2}))

	data, err := os.ReadFile(path) //nolint:gosec // test file
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":2}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAtomicWriteJSONUnmarshalable(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "doc.json")
	assert.Error(t, AtomicWriteJSON(path, map[string]any{"f": func() {}}))
	assert.NoFileExists(t, path)
}

func TestEnsureDirs(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	a, b := filepath.Join(root, "x", "y"), filepath.Join(root, "z")
	require.NoError(t, EnsureDirs(a, b))
	assert.DirExists(t, a)
	assert.DirExists(t, b)
}

func TestExpandHome(t *testing.T) {
	t.Parallel()
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandHome("~/.docup")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".docup"), got)

	got, err = ExpandHome("~")
	require.NoError(t, err)
	assert.Equal(t, home, got)

	got, err = ExpandHome("/var/lib/docup")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/docup", got)

	got, err = ExpandHome("~other/x")
	require.NoError(t, err)
	assert.Equal(t, "~other/x", got)
}
