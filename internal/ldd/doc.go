// Package ldd enumerates the shared libraries an ELF binary needs at run time
// without executing the binary itself.
//
// The binary's dynamic loader is located with package elfinterp and run in its
// dependency-listing mode (`ld.so --list <binary>`). Every reported library,
// and the loader itself, is then walked through its symlink chain so the
// result holds the files that actually have to be present.
//
// # Usage
//
//	deps, err := ldd.List(ctx, "/usr/bin/curl")
//	if err != nil {
//	    return err
//	}
//	for _, p := range deps.Sorted() {
//	    fmt.Println(p)
//	}
//
// # Failure model
//
// Resolution is all-or-nothing: the first I/O error, loader failure, or
// timeout aborts List and no partial set is returned. Callers wanting a
// best-effort listing have to implement it on top of Follow.
//
// The loader runs with a timeout (DefaultTimeout unless changed with
// WithTimeout; zero disables it). A loader that does not finish in time is
// killed and ErrLoaderTimeout is returned.
package ldd
