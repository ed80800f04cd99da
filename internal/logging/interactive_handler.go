package logging

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// InteractiveHandler writes one short line per record for a person watching
// the terminal: a level tag, the message and the record's attributes.
// Timestamps and the run identifier are left out.
type InteractiveHandler struct {
	mu       *sync.Mutex
	writer   io.Writer
	level    slog.Leveler
	useColor bool
	attrs    []slog.Attr
	prefix   string
}

// NewInteractiveHandler returns a handler writing to w.
func NewInteractiveHandler(w io.Writer, level slog.Leveler, useColor bool) *InteractiveHandler {
	return &InteractiveHandler{
		mu:       &sync.Mutex{},
		writer:   w,
		level:    level,
		useColor: useColor,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *InteractiveHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes r.
func (h *InteractiveHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(h.levelTag(r.Level))
	sb.WriteByte(' ')
	sb.WriteString(r.Message)

	for _, attr := range h.attrs {
		appendAttr(&sb, "", attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		appendAttr(&sb, h.prefix, attr)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, sb.String())
	return err
}

// WithAttrs returns a new handler with additional attributes.
func (h *InteractiveHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, attr := range attrs {
		attr.Key = h.prefix + attr.Key
		clone.attrs = append(clone.attrs, attr)
	}
	return &clone
}

// WithGroup returns a new handler whose later attributes are prefixed by name.
func (h *InteractiveHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func (h *InteractiveHandler) levelTag(level slog.Level) string {
	var tag string
	var c *color.Color
	switch {
	case level >= slog.LevelError:
		tag, c = "ERROR", color.New(color.FgRed, color.Bold)
	case level >= slog.LevelWarn:
		tag, c = "WARN ", color.New(color.FgYellow)
	case level >= slog.LevelInfo:
		tag, c = "INFO ", color.New(color.FgGreen)
	default:
		tag, c = "DEBUG", color.New(color.FgHiBlack)
	}
	if !h.useColor {
		return "[" + tag + "]"
	}
	c.EnableColor()
	return c.Sprint(tag)
}

func appendAttr(sb *strings.Builder, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) || attr.Key == RunIDKey {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix += attr.Key + "."
		}
		for _, a := range attr.Value.Group() {
			appendAttr(sb, groupPrefix, a)
		}
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(attr.Key)
	sb.WriteByte('=')
	sb.WriteString(formatValue(attr.Value))
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
