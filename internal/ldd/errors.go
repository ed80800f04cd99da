package ldd

import (
	"errors"
	"fmt"
	"strings"
)

// Static errors
var (
	// ErrLoaderInvocationFailed indicates the dynamic loader could not be run or
	// exited unsuccessfully. Errors of type *LoaderInvocationError match it.
	ErrLoaderInvocationFailed = errors.New("dynamic loader invocation failed")

	// ErrLoaderTimeout indicates the dynamic loader did not finish in time.
	ErrLoaderTimeout = errors.New("dynamic loader timed out")

	// ErrMalformedLoaderOutput indicates the loader wrote output that is not valid text.
	ErrMalformedLoaderOutput = errors.New("malformed dynamic loader output")

	// ErrLibraryNotFound indicates the loader reported a dependency as "not found".
	ErrLibraryNotFound = errors.New("shared library not found")
)

// LoaderInvocationError describes a failed run of the dynamic loader.
type LoaderInvocationError struct {
	Interpreter string
	Binary      string

	// ExitCode is the loader's exit code, -1 when it did not exit normally.
	ExitCode int

	// Status is the human-readable process status, e.g. "exit status 127".
	Status string

	// Stderr holds what the loader wrote to standard error.
	Stderr string

	// Err is set when the loader could not be started.
	Err error
}

func (e *LoaderInvocationError) Error() string {
	var msg string
	if e.Err != nil {
		msg = fmt.Sprintf("failed to call interpreter %q on binary %q: %v", e.Interpreter, e.Binary, e.Err)
	} else {
		status := e.Status
		if status == "" {
			status = fmt.Sprintf("exit status %d", e.ExitCode)
		}
		msg = fmt.Sprintf("failed to call interpreter %q on binary %q: program exited with %s", e.Interpreter, e.Binary, status)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Unwrap returns the start failure, if any.
func (e *LoaderInvocationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrLoaderInvocationFailed) match.
func (e *LoaderInvocationError) Is(target error) bool {
	return target == ErrLoaderInvocationFailed
}
