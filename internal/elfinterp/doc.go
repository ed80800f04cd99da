// Package elfinterp locates the dynamic loader (program interpreter) of an ELF binary.
//
// The locator reads the ELF header and the .interp section only. It does not
// resolve symbols or relocations.
//
// # Usage
//
//	res, err := elfinterp.Locate("/usr/bin/curl")
//	if err != nil {
//	    return err
//	}
//	if !res.Found() {
//	    // statically linked, shebang, or no loader could be guessed
//	}
//	fmt.Println(res.Path) // e.g. /lib64/ld-linux-x86-64.so.2
//
// # Shared objects without .interp
//
// Shared libraries normally carry no .interp section. For an ET_DYN file of a
// known class the locator falls back to well-known loader locations, first
// /lib32/ld-*.so.* or /lib64/ld-*.so.* depending on the class, then
// /lib/ld-*.so.*. Matches of one pattern are tried in lexical order and the
// first one that can be stat'ed wins.
package elfinterp
