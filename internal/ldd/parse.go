package ldd

import "strings"

const (
	// arrow separates a library name from its resolved path.
	arrow = "=>"

	// notFound is what glibc prints in place of "path (address)" for a
	// library it cannot resolve.
	notFound = "not found"
)

// ParseLoaderOutput extracts the resolved library paths from the output of
// `ld.so --list`. Only lines of the form
//
//	name => path (address)
//
// contribute. Lines without an arrow (the loader's own entry), lines whose
// path is an address in parentheses (e.g. linux-vdso.so.1), and lines where
// the name equals the path are skipped.
func ParseLoaderOutput(output string) []string {
	var paths []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 4 {
			continue
		}
		name, sep, path := fields[0], fields[1], fields[2]
		if name == path || path == "" || sep != arrow || strings.HasPrefix(path, "(") {
			continue
		}
		if path+" "+fields[3] == notFound {
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

// MissingLibraries returns the names the loader reported as "not found".
func MissingLibraries(output string) []string {
	var names []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 4 && fields[1] == arrow && fields[2]+" "+fields[3] == notFound {
			names = append(names, fields[0])
		}
	}
	return names
}
