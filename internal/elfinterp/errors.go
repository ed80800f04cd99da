package elfinterp

import "errors"

// Static errors
var (
	// ErrMalformedELF indicates the file is not a valid ELF stream: wrong magic,
	// truncated header, unreadable section table, or a non-text .interp section.
	ErrMalformedELF = errors.New("malformed ELF file")

	// ErrInconsistentELF indicates the section table names a .interp section
	// whose data cannot be read.
	ErrInconsistentELF = errors.New("inconsistent ELF file")

	// ErrInvalidPattern indicates a loader fallback pattern is unusable.
	ErrInvalidPattern = errors.New("invalid loader fallback pattern")
)
