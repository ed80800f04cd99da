package ldd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/isseis/go-safe-ldd/internal/elfinterp"
	"github.com/isseis/go-safe-ldd/internal/safefileio"
)

const (
	// DefaultListFlag is the glibc loader option that prints dependencies.
	DefaultListFlag = "--list"

	// DefaultTimeout bounds a single loader run.
	DefaultTimeout = 60 * time.Second
)

// InterpreterLocator finds the dynamic loader of a binary.
type InterpreterLocator interface {
	Locate(binaryPath string) (elfinterp.Result, error)
}

// Lister enumerates the shared library dependencies of ELF binaries.
type Lister struct {
	fs       safefileio.FileSystem
	locator  InterpreterLocator
	runner   LoaderRunner
	listFlag string
	timeout  time.Duration
}

// Option configures a Lister.
type Option func(*Lister)

// WithFileSystem sets the file system used for symlink walks and, unless a
// locator is given, for interpreter lookup.
func WithFileSystem(fs safefileio.FileSystem) Option {
	return func(l *Lister) {
		l.fs = fs
	}
}

// WithLocator replaces the interpreter locator.
func WithLocator(locator InterpreterLocator) Option {
	return func(l *Lister) {
		l.locator = locator
	}
}

// WithRunner replaces the loader runner.
func WithRunner(runner LoaderRunner) Option {
	return func(l *Lister) {
		l.runner = runner
	}
}

// WithListFlag replaces the option passed to the loader to request a listing.
func WithListFlag(flag string) Option {
	return func(l *Lister) {
		l.listFlag = flag
	}
}

// WithTimeout bounds each loader run. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(l *Lister) {
		l.timeout = d
	}
}

// NewLister creates a Lister with the given options.
func NewLister(opts ...Option) *Lister {
	l := &Lister{
		listFlag: DefaultListFlag,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.fs == nil {
		l.fs = safefileio.NewFileSystem(safefileio.FileSystemConfig{})
	}
	if l.locator == nil {
		l.locator = elfinterp.NewLocator(elfinterp.WithFileSystem(l.fs))
	}
	if l.runner == nil {
		l.runner = NewExecRunner()
	}
	return l
}

// List returns the dependencies of binaryPath using a default Lister.
func List(ctx context.Context, binaryPath string) (Set, error) {
	return NewLister().List(ctx, binaryPath)
}

// List returns every shared library binaryPath depends on, plus its dynamic
// loader, with each symlink chain walked to its end. A binary without an
// interpreter (statically linked) yields an empty set and no loader is run.
func (l *Lister) List(ctx context.Context, binaryPath string) (Set, error) {
	res, err := l.locator.Locate(binaryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to locate interpreter: %w", err)
	}
	if !res.Found() {
		slog.Debug("no interpreter, nothing to resolve",
			slog.String("path", binaryPath),
			slog.String("reason", res.Reason.String()))
		return Set{}, nil
	}

	output, err := l.callInterp(ctx, res.Path, binaryPath)
	if err != nil {
		return nil, err
	}

	if missing := MissingLibraries(output); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s needs %s", ErrLibraryNotFound, binaryPath, strings.Join(missing, ", "))
	}

	deps := append(ParseLoaderOutput(output), res.Path)
	slog.Debug("loader reported dependencies",
		slog.String("path", binaryPath),
		slog.String("interp", res.Path),
		slog.Int("count", len(deps)))

	visited := make(Set, len(deps))
	for _, dep := range deps {
		if err := Follow(l.fs, dep, visited); err != nil {
			return nil, fmt.Errorf("failed to resolve dependency %s of %s: %w", dep, binaryPath, err)
		}
	}
	return visited, nil
}

// callInterp runs the loader in listing mode and returns its standard output.
func (l *Lister) callInterp(ctx context.Context, interp, binaryPath string) (string, error) {
	runCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	result, err := l.runner.Run(runCtx, interp, []string{l.listFlag, binaryPath})
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("interpreter %s on binary %s: %w", interp, binaryPath, ctx.Err())
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: interpreter %s on binary %s did not finish within %s",
				ErrLoaderTimeout, interp, binaryPath, l.timeout)
		}
		invErr := &LoaderInvocationError{Interpreter: interp, Binary: binaryPath, ExitCode: -1, Err: err}
		if result != nil {
			invErr.Stderr = string(result.Stderr)
		}
		return "", invErr
	}

	if result.ExitCode != 0 {
		return "", &LoaderInvocationError{
			Interpreter: interp,
			Binary:      binaryPath,
			ExitCode:    result.ExitCode,
			Status:      result.Status,
			Stderr:      string(result.Stderr),
		}
	}

	if !utf8.Valid(result.Stdout) {
		return "", fmt.Errorf("%w: output of interpreter %s on binary %s is not valid UTF-8",
			ErrMalformedLoaderOutput, interp, binaryPath)
	}
	return string(result.Stdout), nil
}
