// Package staff defines care providers and the capability table that decides
// which illnesses each specialism may take on.
// This package is PURE and must NOT import any infrastructure packages.
package staff

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownSpecialism rejects a provider type with no capability entry.
var ErrUnknownSpecialism = errors.New("unknown specialism")

// Specialism is the configuration tag of a provider type.
type Specialism string

const (
	Doctor       Specialism = "doctor"
	Surgeon      Specialism = "surgeon"
	LimbSurgeon  Specialism = "limbSurgeon"
	OrganSurgeon Specialism = "organSurgeon"
)

// IllnessSet is a small set of illness codes.
type IllnessSet map[int]struct{}

func setOf(codes ...int) IllnessSet {
	s := make(IllnessSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s IllnessSet) Has(code int) bool {
	_, ok := s[code]
	return ok
}

// Codes returns the members in ascending order.
func (s IllnessSet) Codes() []int {
	out := make([]int, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Capability is what one specialism may match and how it treats.
// Direct is always a subset of Matchable; the rest needs a theatre.
type Capability struct {
	Matchable IllnessSet
	Direct    IllnessSet
}

// Operable reports whether illness is matchable but not directly treatable.
func (c Capability) Operable(illness int) bool {
	return c.Matchable.Has(illness) && !c.Direct.Has(illness)
}

// Registry contains the capability entry of every known specialism.
var Registry = map[Specialism]Capability{
	Doctor: {
		Matchable: setOf(1, 2, 3),
		Direct:    setOf(1, 2, 3),
	},
	Surgeon: {
		Matchable: setOf(1, 2, 3, 4),
		Direct:    setOf(1, 2, 3),
	},
	LimbSurgeon: {
		Matchable: setOf(1, 2, 3, 4, 7, 8),
		Direct:    setOf(1, 2, 3),
	},
	OrganSurgeon: {
		Matchable: setOf(1, 2, 3, 4, 5, 6),
		Direct:    setOf(1, 2, 3),
	},
}

// ParseSpecialism maps a configuration tag to a known specialism.
func ParseSpecialism(tag string) (Specialism, error) {
	s := Specialism(tag)
	if _, ok := Registry[s]; !ok {
		return "", fmt.Errorf("%q: %w", tag, ErrUnknownSpecialism)
	}
	return s, nil
}

// GetCapability returns the capability entry for a specialism.
func GetCapability(s Specialism) (Capability, bool) {
	c, ok := Registry[s]
	return c, ok
}
