package discover

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main\n")
	writeFile(t, filepath.Join(dir, "readme.md"), "# hi\n")

	d := New(Options{NoGitignore: true, Extensions: []string{".go"}})
	files, err := d.Discover(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "main.go"), files[0])
}

func TestDiscoverSkipsGitDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main\n")
	writeFile(t, filepath.Join(dir, ".git", "HEAD"), "ref: refs/heads/main\n")

	d := New(Options{NoGitignore: true})
	files, err := d.Discover(context.Background(), []string{dir})
	require.NoError(t, err)
	for _, f := range files {
		assert.NotContains(t, f, ".git")
	}
}

func TestDiscoverHonorsGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "ignored.go\n")
	writeFile(t, filepath.Join(dir, "ignored.go"), "package main\n")
	writeFile(t, filepath.Join(dir, "kept.go"), "package main\n")

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	d := New(Options{})
	files, err := d.Discover(context.Background(), []string{"."})
	require.NoError(t, err)

	var basenames []string
	for _, f := range files {
		basenames = append(basenames, filepath.Base(f))
	}
	assert.Contains(t, basenames, "kept.go")
	assert.NotContains(t, basenames, "ignored.go")
}

func TestDiscoverExcludeGlobOverridesInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a_test.go"), "package main\n")
	writeFile(t, filepath.Join(dir, "a.go"), "package main\n")

	d := New(Options{
		NoGitignore:  true,
		IncludeGlobs: []string{"**/*.go"},
		ExcludeGlobs: []string{"**/*_test.go"},
	})
	files, err := d.Discover(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.go", filepath.Base(files[0]))
}

func TestDiscoverDedupesOverlappingTargets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main\n")

	d := New(Options{NoGitignore: true})
	files, err := d.Discover(context.Background(), []string{dir, filepath.Join(dir, "main.go")})
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDiscoverRespectsMaxBytes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "small.go"), "x")
	writeFile(t, filepath.Join(dir, "big.go"), "this file is bigger than the limit")

	d := New(Options{NoGitignore: true, MaxBytes: 2})
	files, err := d.Discover(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "small.go", filepath.Base(files[0]))
}
