// Package locations holds the ordered configuration locations of a
// container.
//
// Locations are placeholder-resolved and trimmed when set. Order matters:
// a later location overrides definitions of an earlier one, so readers
// apply them in list order.
package locations

import (
	"strings"
	"sync/atomic"

	"github.com/km-arc/go-bootstrap/framework/config"
)

// Resolver substitutes required placeholders. env.Configurable satisfies
// it.
type Resolver interface {
	ResolveRequiredPlaceholders(text string) (string, error)
}

// DefaultProvider supplies locations when none were set.
type DefaultProvider func() []string

// Set is a concurrency-safe, replace-only list of resolved locations. The
// zero value has no resolver (locations are only trimmed) and no defaults.
type Set struct {
	Resolver Resolver
	Defaults DefaultProvider

	resolved atomic.Pointer[[]string]
}

// SetLocation tokenizes a delimited string (",; \t\n") and sets the result.
func (s *Set) SetLocation(location string) error {
	return s.SetLocations(config.Tokenize(location, config.InitParamDelimiters))
}

// SetLocations resolves every entry and publishes the new list in one step.
// A nil slice reverts to the defaults. If any entry fails to resolve, the
// previous list stays in place and the error is returned.
func (s *Set) SetLocations(raw []string) error {
	if raw == nil {
		s.resolved.Store(nil)
		return nil
	}
	out := make([]string, len(raw))
	for i, loc := range raw {
		if s.Resolver != nil {
			r, err := s.Resolver.ResolveRequiredPlaceholders(loc)
			if err != nil {
				return err
			}
			loc = r
		}
		out[i] = strings.TrimSpace(loc)
	}
	s.resolved.Store(&out)
	return nil
}

// Locations returns a copy of the resolved list, or the defaults when none
// were set.
func (s *Set) Locations() []string {
	if p := s.resolved.Load(); p != nil {
		return append([]string(nil), (*p)...)
	}
	if s.Defaults != nil {
		return s.Defaults()
	}
	return nil
}

// Explicit reports whether locations were set rather than defaulted.
func (s *Set) Explicit() bool {
	return s.resolved.Load() != nil
}
