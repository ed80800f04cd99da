package safefileio

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFilePath indicates that the specified file path is invalid.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrNotRegularFile indicates that the path does not name a regular file.
	ErrNotRegularFile = errors.New("not a regular file")

	// ErrFileTooLarge indicates that the file is too large.
	ErrFileTooLarge = errors.New("file too large")
)

// IOError records a failed file system operation together with the path it
// was applied to.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error so errors.Is(err, fs.ErrNotExist) works.
func (e *IOError) Unwrap() error {
	return e.Err
}
