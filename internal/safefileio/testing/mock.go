// Package safefileiotesting provides testing utilities for the safefileio package.
package safefileiotesting

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/isseis/go-safe-ldd/internal/safefileio"
)

// ErrNotImplemented is returned by MockFileSystem for operations the test did not configure.
var ErrNotImplemented = errors.New("operation not implemented in mock")

// MockFileSystem implements safefileio.FileSystem for testing.
// Operations without a configured func fall through to Base when set.
type MockFileSystem struct {
	Base safefileio.FileSystem

	OpenRegularFunc func(name string) (safefileio.File, error)
	LstatFunc       func(name string) (fs.FileInfo, error)
	StatFunc        func(name string) (fs.FileInfo, error)
	ReadlinkFunc    func(name string) (string, error)
	ReadDirFunc     func(name string) ([]fs.DirEntry, error)

	// Call tracking for verification
	LstatCalls    []string
	ReadlinkCalls []string
}

// OpenRegular implements safefileio.FileSystem.
func (m *MockFileSystem) OpenRegular(name string) (safefileio.File, error) {
	if m.OpenRegularFunc != nil {
		return m.OpenRegularFunc(name)
	}
	if m.Base != nil {
		return m.Base.OpenRegular(name)
	}
	return nil, ErrNotImplemented
}

// Lstat implements safefileio.FileSystem.
func (m *MockFileSystem) Lstat(name string) (fs.FileInfo, error) {
	m.LstatCalls = append(m.LstatCalls, name)
	if m.LstatFunc != nil {
		return m.LstatFunc(name)
	}
	if m.Base != nil {
		return m.Base.Lstat(name)
	}
	return nil, ErrNotImplemented
}

// Stat implements safefileio.FileSystem.
func (m *MockFileSystem) Stat(name string) (fs.FileInfo, error) {
	if m.StatFunc != nil {
		return m.StatFunc(name)
	}
	if m.Base != nil {
		return m.Base.Stat(name)
	}
	return nil, ErrNotImplemented
}

// Readlink implements safefileio.FileSystem.
func (m *MockFileSystem) Readlink(name string) (string, error) {
	m.ReadlinkCalls = append(m.ReadlinkCalls, name)
	if m.ReadlinkFunc != nil {
		return m.ReadlinkFunc(name)
	}
	if m.Base != nil {
		return m.Base.Readlink(name)
	}
	return "", ErrNotImplemented
}

// ReadDir implements safefileio.FileSystem.
func (m *MockFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	if m.ReadDirFunc != nil {
		return m.ReadDirFunc(name)
	}
	if m.Base != nil {
		return m.Base.ReadDir(name)
	}
	return nil, ErrNotImplemented
}

// RootedFileSystem maps every absolute path below Root, so tests can lay out
// /lib64 or /usr/lib inside a temporary directory. Paths reported back to the
// caller (symlink targets, directory entries) are left untouched.
type RootedFileSystem struct {
	Root string
	Base safefileio.FileSystem
}

// NewRootedFileSystem returns a RootedFileSystem over the default file system.
func NewRootedFileSystem(root string) *RootedFileSystem {
	return &RootedFileSystem{
		Root: root,
		Base: safefileio.NewFileSystem(safefileio.FileSystemConfig{}),
	}
}

func (r *RootedFileSystem) path(name string) string {
	return filepath.Join(r.Root, name)
}

// OpenRegular implements safefileio.FileSystem.
func (r *RootedFileSystem) OpenRegular(name string) (safefileio.File, error) {
	return r.Base.OpenRegular(r.path(name))
}

// Lstat implements safefileio.FileSystem.
func (r *RootedFileSystem) Lstat(name string) (fs.FileInfo, error) {
	return r.Base.Lstat(r.path(name))
}

// Stat implements safefileio.FileSystem.
// Absolute symlink targets would escape Root, so links are resolved in-root.
func (r *RootedFileSystem) Stat(name string) (fs.FileInfo, error) {
	current := name
	for i := 0; i < 40; i++ {
		info, err := r.Base.Lstat(r.path(current))
		if err != nil {
			return nil, err
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			return info, nil
		}
		target, err := r.Base.Readlink(r.path(current))
		if err != nil {
			return nil, err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(current), target)
		}
		current = target
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: errTooManyLinks}
}

var errTooManyLinks = errors.New("too many levels of symbolic links")

// Readlink implements safefileio.FileSystem.
func (r *RootedFileSystem) Readlink(name string) (string, error) {
	return r.Base.Readlink(r.path(name))
}

// ReadDir implements safefileio.FileSystem.
func (r *RootedFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	return r.Base.ReadDir(r.path(name))
}
