// Package elfinterptesting provides test helpers for the elfinterp package.
package elfinterptesting

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// shstrtab holds the section names; .interp starts at 1 and .shstrtab at 9.
const (
	shstrtab          = "\x00.interp\x00.shstrtab\x00"
	interpNameOff     = 1
	shstrtabNameOff   = 9
	sectionAlignBytes = 8
)

// ELFOptions describes a minimal little-endian ELF file.
type ELFOptions struct {
	// Class defaults to ELFCLASS64.
	Class elf.Class

	// Type defaults to ET_EXEC.
	Type elf.Type

	// Machine defaults to EM_X86_64 for 64-bit and EM_386 for 32-bit files.
	Machine elf.Machine

	// Interp is the raw .interp content. Nil means no .interp section.
	Interp []byte

	// InterpOffset overrides the file offset recorded for .interp, for
	// producing a section header that points past the end of the file.
	InterpOffset uint64

	// InterpNoBits marks .interp as SHT_NOBITS, whose data cannot be read.
	InterpNoBits bool
}

type sectionSpec struct {
	name uint32
	typ  elf.SectionType
	off  uint64
	size uint64
}

// BuildELF returns the bytes of a minimal ELF file with a section table made
// of a null section, an optional .interp section and .shstrtab.
func BuildELF(t *testing.T, opts ELFOptions) []byte {
	t.Helper()

	class := opts.Class
	if class == elf.ELFCLASSNONE {
		class = elf.ELFCLASS64
	}
	typ := opts.Type
	if typ == elf.ET_NONE {
		typ = elf.ET_EXEC
	}
	machine := opts.Machine
	if machine == elf.EM_NONE {
		machine = elf.EM_X86_64
		if class == elf.ELFCLASS32 {
			machine = elf.EM_386
		}
	}

	ehsize, shentsize := uint64(64), uint64(64)
	if class == elf.ELFCLASS32 {
		ehsize, shentsize = 52, 40
	}

	var body bytes.Buffer
	off := ehsize
	sections := []sectionSpec{{}}

	if opts.Interp != nil {
		s := sectionSpec{name: interpNameOff, typ: elf.SHT_PROGBITS, off: off, size: uint64(len(opts.Interp))}
		if opts.InterpNoBits {
			s.typ = elf.SHT_NOBITS
		}
		if opts.InterpOffset != 0 {
			s.off = opts.InterpOffset
		}
		body.Write(opts.Interp)
		off += uint64(len(opts.Interp))
		sections = append(sections, s)
	}

	sections = append(sections, sectionSpec{name: shstrtabNameOff, typ: elf.SHT_STRTAB, off: off, size: uint64(len(shstrtab))})
	body.WriteString(shstrtab)
	off += uint64(len(shstrtab))

	pad := (sectionAlignBytes - off%sectionAlignBytes) % sectionAlignBytes
	body.Write(make([]byte, pad))
	shoff := off + pad

	ident := [elf.EI_NIDENT]byte{0x7f, 'E', 'L', 'F', byte(class), byte(elf.ELFDATA2LSB), byte(elf.EV_CURRENT)}
	shnum := uint16(len(sections))
	shstrndx := shnum - 1

	var out bytes.Buffer
	le := binary.LittleEndian
	switch class {
	case elf.ELFCLASS32:
		require.NoError(t, binary.Write(&out, le, elf.Header32{
			Ident:     ident,
			Type:      uint16(typ),
			Machine:   uint16(machine),
			Version:   uint32(elf.EV_CURRENT),
			Shoff:     uint32(shoff),
			Ehsize:    uint16(ehsize),
			Shentsize: uint16(shentsize),
			Shnum:     shnum,
			Shstrndx:  shstrndx,
		}))
	default:
		require.NoError(t, binary.Write(&out, le, elf.Header64{
			Ident:     ident,
			Type:      uint16(typ),
			Machine:   uint16(machine),
			Version:   uint32(elf.EV_CURRENT),
			Shoff:     shoff,
			Ehsize:    uint16(ehsize),
			Shentsize: uint16(shentsize),
			Shnum:     shnum,
			Shstrndx:  shstrndx,
		}))
	}

	out.Write(body.Bytes())

	for _, s := range sections {
		switch class {
		case elf.ELFCLASS32:
			require.NoError(t, binary.Write(&out, le, elf.Section32{
				Name:      s.name,
				Type:      uint32(s.typ),
				Off:       uint32(s.off),
				Size:      uint32(s.size),
				Addralign: 1,
			}))
		default:
			require.NoError(t, binary.Write(&out, le, elf.Section64{
				Name:      s.name,
				Type:      uint32(s.typ),
				Off:       s.off,
				Size:      s.size,
				Addralign: 1,
			}))
		}
	}

	return out.Bytes()
}

// WriteELF writes a minimal ELF file to path, creating parent directories.
func WriteELF(t *testing.T, path string, opts ELFOptions) {
	t.Helper()
	WriteFile(t, path, BuildELF(t, opts))
}

// WriteFile writes data to path with 0o755 permissions, creating parent directories.
func WriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	// #nosec G306 - test fixtures are meant to look like executables
	require.NoError(t, os.WriteFile(path, data, 0o755))
}
