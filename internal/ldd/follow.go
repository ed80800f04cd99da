package ldd

import (
	"io/fs"
	"path/filepath"

	"github.com/isseis/go-safe-ldd/internal/safefileio"
)

// Follow walks the symlink chain starting at path and records every path it
// passes through, including the final non-symlink, in visited.
//
// A path already present in visited ends the walk, which makes the walk
// terminate on cycles (a -> b -> a) and skips chains shared with earlier
// walks. Relative link targets are resolved against the directory holding the
// link. Any Lstat or Readlink failure is returned as *safefileio.IOError.
func Follow(fsys safefileio.FileSystem, path string, visited Set) error {
	current := path
	for {
		if !visited.Add(current) {
			return nil
		}

		info, err := fsys.Lstat(current)
		if err != nil {
			return &safefileio.IOError{Op: "lstat", Path: current, Err: err}
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			return nil
		}

		target, err := fsys.Readlink(current)
		if err != nil {
			return &safefileio.IOError{Op: "readlink", Path: current, Err: err}
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(current), target)
		}
		current = target
	}
}
