// Package config loads the TOML configuration of the ldlist command.
package config

import (
	"time"

	"github.com/isseis/go-safe-ldd/internal/elfinterp"
)

// Config is the root of the configuration file.
type Config struct {
	Loader   LoaderConfig   `toml:"loader"`
	Fallback FallbackConfig `toml:"fallback"`
	Output   OutputConfig   `toml:"output"`
	Log      LogConfig      `toml:"log"`
}

// LoaderConfig controls how the dynamic loader is invoked.
type LoaderConfig struct {
	// ListFlag is passed to the loader before the binary path.
	ListFlag string `toml:"list_flag"`

	// Timeout in seconds. Nil means DefaultTimeoutSeconds, 0 means unlimited.
	Timeout *int32 `toml:"timeout"`

	// Env, when non-nil, is the complete environment of the loader process
	// as KEY=VALUE entries. Nil inherits the caller's environment.
	Env []string `toml:"env"`
}

// FallbackConfig lists the loader search patterns per ELF class.
type FallbackConfig struct {
	ELF32   []string `toml:"elf32"`
	ELF64   []string `toml:"elf64"`
	Generic []string `toml:"generic"`
}

// OutputConfig controls how results are printed.
type OutputConfig struct {
	Format string `toml:"format"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// TimeoutDuration returns the loader timeout, 0 meaning unlimited.
func (c *LoaderConfig) TimeoutDuration() time.Duration {
	if c.Timeout == nil {
		return time.Duration(DefaultTimeoutSeconds) * time.Second
	}
	return time.Duration(*c.Timeout) * time.Second
}

// FallbackPatterns converts the fallback section for elfinterp.
func (c *FallbackConfig) FallbackPatterns() elfinterp.FallbackPatterns {
	return elfinterp.FallbackPatterns{
		ELF32:   c.ELF32,
		ELF64:   c.ELF64,
		Generic: c.Generic,
	}
}
