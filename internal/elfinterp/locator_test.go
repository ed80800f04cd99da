package elfinterp

import (
	"debug/elf"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	elfinterptesting "github.com/isseis/go-safe-ldd/internal/elfinterp/testing"
	"github.com/isseis/go-safe-ldd/internal/safefileio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const x86_64Loader = "/lib64/ld-linux-x86-64.so.2"

func TestLocator_Locate(t *testing.T) {
	tests := []struct {
		name       string
		opts       elfinterptesting.ELFOptions
		wantPath   string
		wantSource Source
		wantReason Reason
		wantClass  elf.Class
	}{
		{
			name:       "dynamically linked executable",
			opts:       elfinterptesting.ELFOptions{Type: elf.ET_DYN, Interp: []byte(x86_64Loader + "\x00")},
			wantPath:   x86_64Loader,
			wantSource: SourceInterpSection,
			wantClass:  elf.ELFCLASS64,
		},
		{
			name:       "32-bit executable",
			opts:       elfinterptesting.ELFOptions{Class: elf.ELFCLASS32, Interp: []byte("/lib/ld-linux.so.2\x00")},
			wantPath:   "/lib/ld-linux.so.2",
			wantSource: SourceInterpSection,
			wantClass:  elf.ELFCLASS32,
		},
		{
			name:       "interp without trailing NUL",
			opts:       elfinterptesting.ELFOptions{Interp: []byte("/lib/ld-musl-x86_64.so.1")},
			wantPath:   "/lib/ld-musl-x86_64.so.1",
			wantSource: SourceInterpSection,
			wantClass:  elf.ELFCLASS64,
		},
		{
			name:       "multiple trailing NULs are trimmed",
			opts:       elfinterptesting.ELFOptions{Interp: []byte(x86_64Loader + "\x00\x00\x00")},
			wantPath:   x86_64Loader,
			wantSource: SourceInterpSection,
			wantClass:  elf.ELFCLASS64,
		},
		{
			name:       "statically linked executable",
			opts:       elfinterptesting.ELFOptions{Type: elf.ET_EXEC},
			wantReason: ReasonStatic,
			wantClass:  elf.ELFCLASS64,
		},
		{
			name:       "relocatable object",
			opts:       elfinterptesting.ELFOptions{Type: elf.ET_REL},
			wantReason: ReasonStatic,
			wantClass:  elf.ELFCLASS64,
		},
		{
			name:       "shebang in interp section",
			opts:       elfinterptesting.ELFOptions{Type: elf.ET_DYN, Interp: []byte("#!/bin/sh\x00")},
			wantReason: ReasonShebang,
			wantClass:  elf.ELFCLASS64,
		},
		{
			name:       "empty interp on executable",
			opts:       elfinterptesting.ELFOptions{Type: elf.ET_EXEC, Interp: []byte("\x00\x00")},
			wantReason: ReasonStatic,
			wantClass:  elf.ELFCLASS64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "binary")
			elfinterptesting.WriteELF(t, path, tt.opts)

			res, err := NewLocator().Locate(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, res.Path)
			assert.Equal(t, tt.wantSource, res.Source)
			assert.Equal(t, tt.wantReason, res.Reason)
			assert.Equal(t, tt.wantClass, res.Class)
			assert.Equal(t, tt.wantPath != "", res.Found())
		})
	}
}

func TestLocator_Locate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content func(t *testing.T) []byte
		wantErr error
	}{
		{
			name: "shell script",
			content: func(_ *testing.T) []byte {
				return []byte("#!/bin/sh\necho hello\n")
			},
			wantErr: ErrMalformedELF,
		},
		{
			name: "truncated header",
			content: func(t *testing.T) []byte {
				return elfinterptesting.BuildELF(t, elfinterptesting.ELFOptions{})[:20]
			},
			wantErr: ErrMalformedELF,
		},
		{
			name: "unknown ELF class",
			content: func(t *testing.T) []byte {
				data := elfinterptesting.BuildELF(t, elfinterptesting.ELFOptions{})
				data[elf.EI_CLASS] = 7
				return data
			},
			wantErr: ErrMalformedELF,
		},
		{
			name: "interp is not valid text",
			content: func(t *testing.T) []byte {
				return elfinterptesting.BuildELF(t, elfinterptesting.ELFOptions{Interp: []byte{0xff, 0xfe, 0x00}})
			},
			wantErr: ErrMalformedELF,
		},
		{
			name: "interp section points past end of file",
			content: func(t *testing.T) []byte {
				return elfinterptesting.BuildELF(t, elfinterptesting.ELFOptions{
					Interp:       []byte(x86_64Loader + "\x00"),
					InterpOffset: 1 << 20,
				})
			},
			wantErr: ErrInconsistentELF,
		},
		{
			name: "interp section without file data",
			content: func(t *testing.T) []byte {
				return elfinterptesting.BuildELF(t, elfinterptesting.ELFOptions{
					Interp:       []byte(x86_64Loader + "\x00"),
					InterpNoBits: true,
				})
			},
			wantErr: ErrInconsistentELF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "binary")
			elfinterptesting.WriteFile(t, path, tt.content(t))

			res, err := NewLocator().Locate(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), path)
			assert.False(t, res.Found())
		})
	}
}

func TestLocator_Locate_OpenFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing")

	_, err := NewLocator().Locate(path)
	require.Error(t, err)

	var ioErr *safefileio.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "open", ioErr.Op)
	assert.Equal(t, path, ioErr.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLocator_Locate_LargeSparseBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "libtorch_cuda.so")
	elfinterptesting.WriteELF(t, path, elfinterptesting.ELFOptions{
		Type:   elf.ET_DYN,
		Interp: []byte(x86_64Loader + "\x00"),
	})
	// Grow past 1 GiB without allocating blocks; the headers stay at the front.
	require.NoError(t, os.Truncate(path, 1<<30+4096))

	res, err := NewLocator().Locate(path)
	require.NoError(t, err)
	assert.Equal(t, x86_64Loader, res.Path)
	assert.Equal(t, SourceInterpSection, res.Source)
}

func TestLocator_Locate_Directory(t *testing.T) {
	_, err := NewLocator().Locate(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, safefileio.ErrNotRegularFile)
}

func TestLocator_Locate_SymlinkedBinary(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "python3.11")
	elfinterptesting.WriteELF(t, target, elfinterptesting.ELFOptions{Interp: []byte(x86_64Loader + "\x00")})
	link := filepath.Join(dir, "python3")
	require.NoError(t, os.Symlink("python3.11", link))

	res, err := Locate(link)
	require.NoError(t, err)
	assert.Equal(t, x86_64Loader, res.Path)
}

func TestSourceAndReasonString(t *testing.T) {
	assert.Equal(t, "none", SourceNone.String())
	assert.Equal(t, "interp_section", SourceInterpSection.String())
	assert.Equal(t, "fallback", SourceFallback.String())
	assert.Equal(t, "unknown(9)", Source(9).String())

	assert.Equal(t, "", ReasonNone.String())
	assert.Equal(t, "statically linked", ReasonStatic.String())
	assert.Equal(t, "shebang interpreter", ReasonShebang.String())
	assert.Equal(t, "no dynamic loader found", ReasonNoLoaderFound.String())
	assert.Equal(t, "unknown(9)", Reason(9).String())
}
