package elfinterp

import (
	"debug/elf"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/isseis/go-safe-ldd/internal/safefileio"
)

// interpSection is the name of the section holding the loader path.
const interpSection = ".interp"

// shebangPrefix marks a script interpreter rather than an ELF loader.
const shebangPrefix = "#!"

// Source describes where an interpreter path came from.
type Source int

const (
	// SourceNone means no interpreter was found.
	SourceNone Source = iota

	// SourceInterpSection means the path was read from the .interp section.
	SourceInterpSection

	// SourceFallback means the path was guessed from well-known loader locations.
	SourceFallback
)

// String returns a string representation of Source.
func (s Source) String() string {
	switch s {
	case SourceNone:
		return "none"
	case SourceInterpSection:
		return "interp_section"
	case SourceFallback:
		return "fallback"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Reason explains why no interpreter was returned.
type Reason int

const (
	// ReasonNone is set when an interpreter was found.
	ReasonNone Reason = iota

	// ReasonStatic indicates a statically linked binary.
	ReasonStatic

	// ReasonShebang indicates the .interp section holds a "#!" script line.
	ReasonShebang

	// ReasonNoLoaderFound indicates a shared object for which no fallback
	// pattern matched an existing file.
	ReasonNoLoaderFound
)

// String returns a string representation of Reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonStatic:
		return "statically linked"
	case ReasonShebang:
		return "shebang interpreter"
	case ReasonNoLoaderFound:
		return "no dynamic loader found"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// Result is the outcome of locating an interpreter.
type Result struct {
	// Path is the loader path, empty when there is none.
	Path string

	// Source tells whether Path came from .interp or from the fallback search.
	Source Source

	// Reason is set when Path is empty.
	Reason Reason

	// Class, Type and Machine are copied from the ELF header.
	Class   elf.Class
	Type    elf.Type
	Machine elf.Machine
}

// Found reports whether an interpreter path was determined.
func (r Result) Found() bool {
	return r.Path != ""
}

// Locator finds the program interpreter of ELF binaries.
type Locator struct {
	fs       safefileio.FileSystem
	patterns FallbackPatterns
	fallback map[elf.Class][]fallbackPattern
}

// Option configures a Locator.
type Option func(*Locator)

// WithFileSystem sets the file system used to open binaries and search for loaders.
func WithFileSystem(fs safefileio.FileSystem) Option {
	return func(l *Locator) {
		l.fs = fs
	}
}

// WithFallbackPatterns replaces the default loader fallback patterns.
func WithFallbackPatterns(p FallbackPatterns) Option {
	return func(l *Locator) {
		l.patterns = p
	}
}

// NewLocator creates a Locator. It panics if a fallback pattern is invalid;
// patterns coming from user input must be checked with ValidatePattern first.
func NewLocator(opts ...Option) *Locator {
	l := &Locator{
		patterns: DefaultFallbackPatterns(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.fs == nil {
		l.fs = safefileio.NewFileSystem(safefileio.FileSystemConfig{})
	}
	l.fallback = l.patterns.compile()
	return l
}

// Locate returns the interpreter of the ELF binary at binaryPath using a default Locator.
func Locate(binaryPath string) (Result, error) {
	return NewLocator().Locate(binaryPath)
}

// Locate returns the interpreter of the ELF binary at binaryPath.
//
// Errors:
//   - *safefileio.IOError when the file cannot be opened
//   - ErrMalformedELF when the file is not a parseable ELF stream or .interp is not text
//   - ErrInconsistentELF when .interp exists but its data cannot be read
func (l *Locator) Locate(binaryPath string) (Result, error) {
	file, err := l.fs.OpenRegular(binaryPath)
	if err != nil {
		return Result{}, &safefileio.IOError{Op: "open", Path: binaryPath, Err: err}
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("error closing file during interpreter lookup", slog.String("path", binaryPath), slog.Any("error", closeErr))
		}
	}()

	elfFile, err := elf.NewFile(file)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrMalformedELF, binaryPath, err)
	}
	defer func() {
		if closeErr := elfFile.Close(); closeErr != nil {
			slog.Warn("error closing ELF file during interpreter lookup", slog.String("path", binaryPath), slog.Any("error", closeErr))
		}
	}()

	res := Result{
		Class:   elfFile.Class,
		Type:    elfFile.Type,
		Machine: elfFile.Machine,
	}

	section := elfFile.Section(interpSection)
	if section == nil {
		return l.withoutInterp(binaryPath, res), nil
	}

	data, err := section.Data()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %s section header present but its data is unreadable: %w",
			ErrInconsistentELF, binaryPath, interpSection, err)
	}
	if !utf8.Valid(data) {
		return Result{}, fmt.Errorf("%w: %s: %s section is not valid text", ErrMalformedELF, binaryPath, interpSection)
	}

	interp := strings.TrimRight(string(data), "\x00")
	if strings.HasPrefix(interp, shebangPrefix) {
		slog.Debug("ignoring shebang interpreter", slog.String("path", binaryPath), slog.String("interp", interp))
		res.Reason = ReasonShebang
		return res, nil
	}
	if interp != "" {
		res.Path = interp
		res.Source = SourceInterpSection
		return res, nil
	}

	return l.withoutInterp(binaryPath, res), nil
}

// withoutInterp decides what a binary without a usable .interp needs:
// shared objects of a known class get the fallback search, everything else
// is treated as statically linked.
func (l *Locator) withoutInterp(binaryPath string, res Result) Result {
	if res.Type != elf.ET_DYN || !knownClass(res.Class) {
		res.Reason = ReasonStatic
		return res
	}

	path := l.searchFallback(res.Class)
	if path == "" {
		res.Reason = ReasonNoLoaderFound
		return res
	}

	slog.Debug("guessed dynamic loader for shared object",
		slog.String("path", binaryPath),
		slog.String("interp", path),
		slog.String("class", res.Class.String()))
	res.Path = path
	res.Source = SourceFallback
	return res
}

func knownClass(c elf.Class) bool {
	return c == elf.ELFCLASS32 || c == elf.ELFCLASS64
}
