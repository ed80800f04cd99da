package config

import (
	"fmt"
	"strings"

	"github.com/isseis/go-safe-ldd/internal/logging"
)

// Validate checks a configuration that already has defaults applied.
func Validate(cfg *Config) error {
	if err := validateLoader(&cfg.Loader); err != nil {
		return err
	}
	if err := cfg.Fallback.FallbackPatterns().Validate(); err != nil {
		return fmt.Errorf("fallback: %w", err)
	}
	switch cfg.Output.Format {
	case OutputText, OutputJSON:
	default:
		return fmt.Errorf("%w: %q (expected %q or %q)", ErrInvalidOutput, cfg.Output.Format, OutputText, OutputJSON)
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLogSettings, err)
	}
	if err := logging.ValidateFormat(cfg.Log.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLogSettings, err)
	}
	return nil
}

func validateLoader(c *LoaderConfig) error {
	if c.Timeout != nil && *c.Timeout < 0 {
		return fmt.Errorf("%w: loader timeout got %d", ErrNegativeTimeout, *c.Timeout)
	}
	if err := ValidateListFlag(c.ListFlag); err != nil {
		return err
	}
	for i, entry := range c.Env {
		if err := ValidateEnvEntry(entry); err != nil {
			return fmt.Errorf("loader.env[%d]: %w", i, err)
		}
	}
	return nil
}

// ValidateListFlag checks that flag is a single option word.
func ValidateListFlag(flag string) error {
	if !strings.HasPrefix(flag, "-") || strings.ContainsAny(flag, " \t\n\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidListFlag, flag)
	}
	return nil
}

// ValidateEnvEntry checks that entry has the form KEY=VALUE with a
// non-empty key and no NUL byte.
func ValidateEnvEntry(entry string) error {
	key, _, ok := strings.Cut(entry, "=")
	if !ok || key == "" || strings.ContainsRune(entry, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidEnvEntry, entry)
	}
	return nil
}
