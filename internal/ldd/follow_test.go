package ldd

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/isseis/go-safe-ldd/internal/safefileio"
	safefileiotesting "github.com/isseis/go-safe-ldd/internal/safefileio/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tempDir returns a temporary directory with symlinks in its own path resolved.
func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o600))
}

func symlink(t *testing.T, target, link string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(link), 0o755))
	require.NoError(t, os.Symlink(target, link))
}

func newFS() safefileio.FileSystem {
	return safefileio.NewFileSystem(safefileio.FileSystemConfig{})
}

func TestFollow_CanonicalPathIsIdempotent(t *testing.T) {
	dir := tempDir(t)
	lib := filepath.Join(dir, "libc.so.6")
	touch(t, lib)

	visited := NewSet()
	require.NoError(t, Follow(newFS(), lib, visited))
	assert.Equal(t, NewSet(lib), visited)

	require.NoError(t, Follow(newFS(), lib, visited))
	assert.Equal(t, NewSet(lib), visited)
}

func TestFollow_RelativeTargetsResolveAgainstLinkDirectory(t *testing.T) {
	dir := tempDir(t)
	libDir := filepath.Join(dir, "x", "y")
	touch(t, filepath.Join(libDir, "lib.so.1.2"))
	symlink(t, "lib.so.1.2", filepath.Join(libDir, "lib.so.1"))
	symlink(t, "lib.so.1", filepath.Join(libDir, "lib.so"))

	visited := NewSet()
	require.NoError(t, Follow(newFS(), filepath.Join(libDir, "lib.so"), visited))
	assert.Equal(t, []string{
		filepath.Join(libDir, "lib.so"),
		filepath.Join(libDir, "lib.so.1"),
		filepath.Join(libDir, "lib.so.1.2"),
	}, visited.Sorted())
}

func TestFollow_RelativeTargetWithParentDirectory(t *testing.T) {
	dir := tempDir(t)
	touch(t, filepath.Join(dir, "lib64", "libfoo.so.1"))
	symlink(t, "../../lib64/libfoo.so.1", filepath.Join(dir, "usr", "lib64", "libfoo.so.1"))

	visited := NewSet()
	require.NoError(t, Follow(newFS(), filepath.Join(dir, "usr", "lib64", "libfoo.so.1"), visited))
	assert.True(t, visited.Contains(filepath.Join(dir, "lib64", "libfoo.so.1")))
	assert.Len(t, visited, 2)
}

func TestFollow_AbsoluteTarget(t *testing.T) {
	dir := tempDir(t)
	target := filepath.Join(dir, "real", "libz.so.1.3")
	touch(t, target)
	link := filepath.Join(dir, "lib", "libz.so.1")
	symlink(t, target, link)

	visited := NewSet()
	require.NoError(t, Follow(newFS(), link, visited))
	assert.Equal(t, NewSet(link, target), visited)
}

func TestFollow_Cycle(t *testing.T) {
	dir := tempDir(t)
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	symlink(t, "b", a)
	symlink(t, "a", b)

	visited := NewSet()
	require.NoError(t, Follow(newFS(), a, visited))
	assert.Equal(t, NewSet(a, b), visited)
}

func TestFollow_SelfLoop(t *testing.T) {
	dir := tempDir(t)
	self := filepath.Join(dir, "self")
	symlink(t, "self", self)

	visited := NewSet()
	require.NoError(t, Follow(newFS(), self, visited))
	assert.Equal(t, NewSet(self), visited)
}

func TestFollow_SharedChainStopsAtVisitedPath(t *testing.T) {
	dir := tempDir(t)
	touch(t, filepath.Join(dir, "libssl.so.3.0"))
	symlink(t, "libssl.so.3.0", filepath.Join(dir, "libssl.so.3"))
	symlink(t, "libssl.so.3", filepath.Join(dir, "libssl.so"))

	mockFS := &safefileiotesting.MockFileSystem{Base: newFS()}
	visited := NewSet()
	require.NoError(t, Follow(mockFS, filepath.Join(dir, "libssl.so.3"), visited))
	require.NoError(t, Follow(mockFS, filepath.Join(dir, "libssl.so"), visited))

	assert.Len(t, visited, 3)
	// libssl.so.3 and its target are not looked at again on the second walk.
	assert.Equal(t, []string{
		filepath.Join(dir, "libssl.so.3"),
		filepath.Join(dir, "libssl.so.3.0"),
		filepath.Join(dir, "libssl.so"),
	}, mockFS.LstatCalls)
}

func TestFollow_BrokenLink(t *testing.T) {
	dir := tempDir(t)
	link := filepath.Join(dir, "libgone.so.1")
	symlink(t, "libgone.so.1.0", link)

	err := Follow(newFS(), link, NewSet())
	require.Error(t, err)

	var ioErr *safefileio.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "lstat", ioErr.Op)
	assert.Equal(t, filepath.Join(dir, "libgone.so.1.0"), ioErr.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestFollow_ReadlinkFailure(t *testing.T) {
	dir := tempDir(t)
	link := filepath.Join(dir, "libfoo.so")
	symlink(t, "libfoo.so.1", link)

	mockFS := &safefileiotesting.MockFileSystem{
		Base: newFS(),
		ReadlinkFunc: func(name string) (string, error) {
			return "", &fs.PathError{Op: "readlink", Path: name, Err: fs.ErrPermission}
		},
	}

	err := Follow(mockFS, link, NewSet())
	require.Error(t, err)

	var ioErr *safefileio.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "readlink", ioErr.Op)
	assert.Equal(t, link, ioErr.Path)
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestSet(t *testing.T) {
	s := NewSet("/b", "/a")
	assert.True(t, s.Add("/c"))
	assert.False(t, s.Add("/a"))
	assert.True(t, s.Contains("/b"))
	assert.False(t, s.Contains("/d"))

	s.Merge(NewSet("/d", "/a"))
	assert.Equal(t, []string{"/a", "/b", "/c", "/d"}, s.Sorted())
}
