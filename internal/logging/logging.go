// Package logging configures the slog logger used by the command line tool.
// Interactive sessions get a compact colored handler on stderr; everything
// else gets slog's text or JSON handler tagged with a per-run identifier.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/isseis/go-safe-ldd/internal/terminal"
	"github.com/oklog/ulid/v2"
)

// Supported output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Static errors
var (
	ErrInvalidLevel  = errors.New("invalid log level")
	ErrInvalidFormat = errors.New("invalid log format")
	ErrNilWriter     = errors.New("log writer is required")
)

// Options configures NewLogger.
type Options struct {
	Level  slog.Level
	Format string
	Writer io.Writer

	// Capabilities selects the interactive handler when the terminal is
	// interactive. Nil means never interactive.
	Capabilities terminal.Capabilities

	// RunID is attached to every record as "run_id". Empty means a new one
	// is generated.
	RunID string
}

// GenerateRunID returns a new lexically sortable run identifier.
func GenerateRunID() string {
	return ulid.Make().String()
}

// ParseLevel accepts debug, info, warn (or warning) and error, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// ValidateFormat reports whether format names a supported handler.
func ValidateFormat(format string) error {
	switch format {
	case FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("%w: %q (expected %q or %q)", ErrInvalidFormat, format, FormatText, FormatJSON)
	}
}

// NewLogger builds a logger from opts. JSON output is never replaced by the
// interactive handler.
func NewLogger(opts Options) (*slog.Logger, error) {
	if opts.Writer == nil {
		return nil, ErrNilWriter
	}
	format := opts.Format
	if format == "" {
		format = FormatText
	}
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}

	runID := opts.RunID
	if runID == "" {
		runID = GenerateRunID()
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	var handler slog.Handler
	switch {
	case format == FormatJSON:
		handler = slog.NewJSONHandler(opts.Writer, handlerOpts)
	case opts.Capabilities != nil && opts.Capabilities.IsInteractive():
		handler = NewInteractiveHandler(opts.Writer, opts.Level, opts.Capabilities.SupportsColor())
	default:
		handler = slog.NewTextHandler(opts.Writer, handlerOpts)
	}

	return slog.New(handler).With(slog.String(RunIDKey, runID)), nil
}

// RunIDKey is the attribute key carrying the run identifier.
const RunIDKey = "run_id"
