package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoin(t *testing.T) {
	require.Equal(t, "a/b/c", Join("a", "b", "c"))
}

func TestCreatePathAndExists(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b", "c")

	ok, err := Exists(target)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, CreatePath(target))
	ok, err = Exists(target)
	require.NoError(t, err)
	require.True(t, ok)

	// Pre-existing directories are not an error.
	require.NoError(t, CreatePath(target))
}

func TestBytesToFileNoOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload")

	require.NoError(t, BytesToFile(path, []byte("hello")))
	err := BytesToFile(path, []byte("world"))
	require.Error(t, err)

	data, ok, err := FileToBytes(path)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", string(data))
}

func TestFileToBytesMissing(t *testing.T) {
	dir := t.TempDir()
	_, ok, err := FileToBytes(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPathAttributesMissing(t *testing.T) {
	dir := t.TempDir()
	_, ok, err := PathAttributes(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRemoveFileAndDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, CreatePath(sub))
	file := filepath.Join(sub, "f")
	require.NoError(t, BytesToFile(file, []byte("x")))

	require.NoError(t, RemoveFile(file))

	// Directory prune: empty now, should succeed.
	require.NoError(t, RemoveDir(sub))
	ok, err := Exists(sub)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRemoveDirNotEmptyIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, CreatePath(sub))
	require.NoError(t, BytesToFile(filepath.Join(sub, "f"), []byte("x")))

	require.NoError(t, RemoveDir(sub))
	ok, err := Exists(sub)
	require.NoError(t, err)
	require.True(t, ok, "non-empty directory pruning must be swallowed, not delete contents")
}
