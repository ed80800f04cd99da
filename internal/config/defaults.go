package config

import (
	"time"

	"github.com/isseis/go-safe-ldd/internal/elfinterp"
	"github.com/isseis/go-safe-ldd/internal/ldd"
	"github.com/isseis/go-safe-ldd/internal/logging"
)

// Default values
const (
	DefaultTimeoutSeconds int32 = int32(ldd.DefaultTimeout / time.Second)
	DefaultOutputFormat         = OutputText
	DefaultLogLevel             = "info"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields. A fallback section with no pattern at
// all gets the built-in patterns; a partially filled one is kept as is.
func ApplyDefaults(cfg *Config) {
	if cfg.Loader.ListFlag == "" {
		cfg.Loader.ListFlag = ldd.DefaultListFlag
	}
	if cfg.Loader.Timeout == nil {
		v := DefaultTimeoutSeconds
		cfg.Loader.Timeout = &v
	}
	if cfg.Fallback.ELF32 == nil && cfg.Fallback.ELF64 == nil && cfg.Fallback.Generic == nil {
		p := elfinterp.DefaultFallbackPatterns()
		cfg.Fallback = FallbackConfig{ELF32: p.ELF32, ELF64: p.ELF64, Generic: p.Generic}
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = DefaultOutputFormat
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = logging.FormatText
	}
}
