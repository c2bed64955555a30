package filter

import (
	"slices"
	"strings"
)

// IgnoreSet holds bare entry names to skip during a crawl. A match on any
// entry excludes that entry and everything below it.
type IgnoreSet struct {
	exact    map[string]struct{}
	patterns []*namePattern
}

// NewIgnoreSet creates a set holding the given names.
func NewIgnoreSet(names ...string) (*IgnoreSet, error) {
	s := &IgnoreSet{exact: make(map[string]struct{})}
	for _, name := range names {
		if err := s.Add(name); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add adds one name. Names containing '*', '?' or '[' are treated as globs
// over the whole entry name; anything else must match exactly.
func (s *IgnoreSet) Add(name string) error {
	if s.exact == nil {
		s.exact = make(map[string]struct{})
	}
	if !isGlob(name) {
		s.exact[name] = struct{}{}
		return nil
	}
	p, err := compileNamePattern(name)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, p)
	return nil
}

// Match reports whether an entry called name should be skipped.
// A nil set matches nothing.
func (s *IgnoreSet) Match(name string) bool {
	if s == nil {
		return false
	}
	if _, ok := s.exact[name]; ok {
		return true
	}
	for _, p := range s.patterns {
		if p.match(name) {
			return true
		}
	}
	return false
}

// Len returns the number of names in the set.
func (s *IgnoreSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.exact) + len(s.patterns)
}

// Names returns every name in the set, sorted.
func (s *IgnoreSet) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, s.Len())
	for name := range s.exact {
		names = append(names, name)
	}
	for _, p := range s.patterns {
		names = append(names, p.original)
	}
	slices.Sort(names)
	return names
}

func isGlob(name string) bool {
	return strings.ContainsAny(name, "*?[")
}
