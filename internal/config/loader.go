package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/isseis/go-safe-ldd/internal/safefileio"
	"github.com/pelletier/go-toml/v2"
)

// MaxConfigSize bounds the configuration file read by Load.
const MaxConfigSize = 1 << 20

// Loader reads configuration files through a safefileio.FileSystem.
type Loader struct {
	fs safefileio.FileSystem
}

// NewLoader returns a Loader. A nil fs uses the real file system.
func NewLoader(fs safefileio.FileSystem) *Loader {
	if fs == nil {
		fs = safefileio.NewFileSystem(safefileio.FileSystemConfig{MaxFileSize: MaxConfigSize})
	}
	return &Loader{fs: fs}
}

// Load reads, parses and validates the file at path.
func Load(path string) (*Config, error) {
	return NewLoader(nil).Load(path)
}

// Load reads, parses and validates the file at path.
func (l *Loader) Load(path string) (*Config, error) {
	f, err := l.fs.OpenRegular(path)
	if err != nil {
		if errors.Is(err, safefileio.ErrFileTooLarge) {
			return nil, fmt.Errorf("%w: %s", ErrConfigTooLarge, path)
		}
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			slog.Warn("Failed to close config file", "path", path, "error", cerr)
		}
	}()

	content, err := io.ReadAll(io.LimitReader(f, MaxConfigSize+1))
	if err != nil {
		return nil, &safefileio.IOError{Op: "read", Path: path, Err: err}
	}
	if len(content) > MaxConfigSize {
		return nil, fmt.Errorf("%w: %s", ErrConfigTooLarge, path)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("Loaded configuration", "path", path)
	return cfg, nil
}

// Parse decodes TOML content, rejecting unknown keys, then applies defaults
// and validates the result.
func Parse(content []byte) (*Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return nil, fmt.Errorf("failed to parse config: unknown keys:\n%s", strictErr.String())
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
