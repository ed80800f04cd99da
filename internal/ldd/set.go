package ldd

import "sort"

// Set is a set of file paths.
type Set map[string]struct{}

// NewSet returns a set holding paths.
func NewSet(paths ...string) Set {
	s := make(Set, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

// Add inserts p and reports whether it was not already present.
func (s Set) Add(p string) bool {
	if _, ok := s[p]; ok {
		return false
	}
	s[p] = struct{}{}
	return true
}

// Contains reports whether p is in the set.
func (s Set) Contains(p string) bool {
	_, ok := s[p]
	return ok
}

// Merge adds every path of other to s.
func (s Set) Merge(other Set) {
	for p := range other {
		s[p] = struct{}{}
	}
}

// Sorted returns the paths in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
