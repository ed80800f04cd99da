// Package safefileio provides the file system operations used while inspecting
// binaries and walking symlink chains, with checks against reading devices,
// FIFOs, or unreasonably large files.
package safefileio

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
)

// FileSystem is an interface that abstracts file system operations
type FileSystem interface {
	// OpenRegular opens name read-only. The final path element is followed if it
	// is a symlink, but the opened file must be a regular file no larger than
	// the configured size limit, if one is set.
	OpenRegular(name string) (File, error)

	// Lstat returns file information without following a final symlink.
	Lstat(name string) (fs.FileInfo, error)

	// Stat returns file information, following symlinks.
	Stat(name string) (fs.FileInfo, error)

	// Readlink returns the target of the symlink name.
	Readlink(name string) (string, error)

	// ReadDir returns the entries of the directory name sorted by file name.
	ReadDir(name string) ([]fs.DirEntry, error)
}

// File is an interface that abstracts file operations.
// It implements io.ReaderAt so it can be passed directly to debug/elf.NewFile.
type File interface {
	io.Reader
	io.ReaderAt
	io.Closer
	Stat() (os.FileInfo, error)
}

// FileSystemConfig configures the default FileSystem.
type FileSystemConfig struct {
	// MaxFileSize limits OpenRegular. Zero or negative means no limit; ELF
	// files are read lazily, so binaries are opened without one.
	MaxFileSize int64
}

// osFS implements FileSystem using the local disk
type osFS struct {
	maxFileSize int64
}

// NewFileSystem returns a FileSystem backed by the os package.
func NewFileSystem(cfg FileSystemConfig) FileSystem {
	return &osFS{maxFileSize: cfg.MaxFileSize}
}

func (f *osFS) OpenRegular(name string) (File, error) {
	if name == "" {
		return nil, ErrInvalidFilePath
	}

	// #nosec G304 - the file is validated as a regular file right after opening
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	if err := validateFile(file, name, f.maxFileSize); err != nil {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("error closing rejected file", slog.String("path", name), slog.Any("error", closeErr))
		}
		return nil, err
	}
	return file, nil
}

func (f *osFS) Lstat(name string) (fs.FileInfo, error) {
	return os.Lstat(name)
}

func (f *osFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (f *osFS) Readlink(name string) (string, error) {
	return os.Readlink(name)
}

func (f *osFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

// validateFile checks that the opened file is a regular file within the size
// limit. A maxSize of zero or less disables the size check.
// The descriptor is used rather than the path so the check applies to what was opened.
func validateFile(file File, filePath string, maxSize int64) error {
	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return fmt.Errorf("%w: %s (%s)", ErrNotRegularFile, filePath, fileInfo.Mode())
	}

	if maxSize > 0 && fileInfo.Size() > maxSize {
		return fmt.Errorf("%w: %s is %d bytes (max %d)", ErrFileTooLarge, filePath, fileInfo.Size(), maxSize)
	}

	return nil
}
