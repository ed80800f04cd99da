package elfinterp

import (
	"debug/elf"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// globMeta lists the characters that make a path element a pattern.
const globMeta = "*?[]{}\\"

// FallbackPatterns lists the loader locations searched for shared objects
// without an .interp section. The class specific patterns are tried before Generic.
type FallbackPatterns struct {
	ELF32   []string
	ELF64   []string
	Generic []string
}

// DefaultFallbackPatterns returns the well-known glibc loader locations.
func DefaultFallbackPatterns() FallbackPatterns {
	return FallbackPatterns{
		ELF32:   []string{"/lib32/ld-*.so.*"},
		ELF64:   []string{"/lib64/ld-*.so.*"},
		Generic: []string{"/lib/ld-*.so.*"},
	}
}

// Validate checks every pattern with ValidatePattern.
func (p FallbackPatterns) Validate() error {
	for _, group := range [][]string{p.ELF32, p.ELF64, p.Generic} {
		for _, pattern := range group {
			if err := ValidatePattern(pattern); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p FallbackPatterns) compile() map[elf.Class][]fallbackPattern {
	generic := mustCompilePatterns(p.Generic)
	return map[elf.Class][]fallbackPattern{
		elf.ELFCLASS32: append(mustCompilePatterns(p.ELF32), generic...),
		elf.ELFCLASS64: append(mustCompilePatterns(p.ELF64), generic...),
	}
}

// fallbackPattern is a pattern split into a literal directory and a compiled
// matcher for the entries of that directory.
type fallbackPattern struct {
	raw     string
	dir     string
	matcher glob.Glob
}

// ValidatePattern reports whether pattern can be used as a fallback pattern.
// It must be absolute and only its last element may contain wildcards.
func ValidatePattern(pattern string) error {
	_, err := compilePattern(pattern)
	return err
}

func compilePattern(pattern string) (fallbackPattern, error) {
	if !filepath.IsAbs(pattern) {
		return fallbackPattern{}, fmt.Errorf("%w: %q is not absolute", ErrInvalidPattern, pattern)
	}
	dir, base := filepath.Split(pattern)
	if base == "" {
		return fallbackPattern{}, fmt.Errorf("%w: %q has no file name element", ErrInvalidPattern, pattern)
	}
	if strings.ContainsAny(dir, globMeta) {
		return fallbackPattern{}, fmt.Errorf("%w: %q has wildcards outside its last element", ErrInvalidPattern, pattern)
	}
	matcher, err := glob.Compile(base, '/')
	if err != nil {
		return fallbackPattern{}, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, pattern, err)
	}
	return fallbackPattern{
		raw:     pattern,
		dir:     filepath.Clean(dir),
		matcher: matcher,
	}, nil
}

// mustCompilePatterns panics on an invalid pattern. Built-in patterns are
// constants and configured ones are validated on load, so a failure here is a
// programming error.
func mustCompilePatterns(patterns []string) []fallbackPattern {
	compiled := make([]fallbackPattern, 0, len(patterns))
	for _, pattern := range patterns {
		p, err := compilePattern(pattern)
		if err != nil {
			panic(fmt.Sprintf("elfinterp: %v", err))
		}
		compiled = append(compiled, p)
	}
	return compiled
}

// searchFallback returns the first existing loader for class, or "".
func (l *Locator) searchFallback(class elf.Class) string {
	for _, p := range l.fallback[class] {
		for _, candidate := range l.matches(p) {
			if _, err := l.fs.Stat(candidate); err != nil {
				slog.Debug("skipping unusable loader candidate", slog.String("path", candidate), slog.Any("error", err))
				continue
			}
			return candidate
		}
	}
	return ""
}

// matches expands p in lexical order. Unreadable directories have no matches.
func (l *Locator) matches(p fallbackPattern) []string {
	entries, err := l.fs.ReadDir(p.dir)
	if err != nil {
		slog.Debug("loader fallback directory not readable", slog.String("pattern", p.raw), slog.Any("error", err))
		return nil
	}

	var found []string
	for _, entry := range entries {
		if p.matcher.Match(entry.Name()) {
			found = append(found, filepath.Join(p.dir, entry.Name()))
		}
	}
	sort.Strings(found)
	return found
}
