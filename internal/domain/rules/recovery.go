// Package rules contains the pure calculation logic for hospital mechanics.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import (
	"errors"
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
)

var (
	// ErrUnknownIllness is returned for an illness code with no recovery range.
	ErrUnknownIllness = errors.New("unknown illness")
	// ErrInvalidRange rejects a recovery range override.
	ErrInvalidRange = errors.New("invalid recovery range")
)

// drawBound is the lower limit of the wide uniform range recovery draws are
// rejected from. Ranges reaching past it widen the bound to max+1.
const drawBound = 100

// Range is an inclusive recovery duration in days.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r Range) contains(d int) bool {
	return d >= r.Min && d <= r.Max
}

// DefaultRanges returns the stock illness table, codes 1-8.
func DefaultRanges() map[int]Range {
	return map[int]Range{
		1: {5, 5},
		2: {3, 3},
		3: {1, 1},
		4: {2, 4},
		5: {5, 8},
		6: {6, 8},
		7: {4, 6},
		8: {2, 3},
	}
}

// RecoveryPolicy draws recovery durations per illness.
// Each hospital owns its own policy; nothing here is shared between runs.
type RecoveryPolicy struct {
	ranges map[int]Range
	rng    *rand.Rand
}

// NewRecoveryPolicy copies ranges and draws from a PCG stream seeded with seed.
func NewRecoveryPolicy(ranges map[int]Range, seed uint64) *RecoveryPolicy {
	return &RecoveryPolicy{
		ranges: maps.Clone(ranges),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// RecoveryDays draws uniformly from the illness's inclusive range by
// rejection sampling against a wide outer bound.
func (p *RecoveryPolicy) RecoveryDays(illness int) (int, error) {
	r, ok := p.ranges[illness]
	if !ok {
		return 0, fmt.Errorf("illness %d: %w", illness, ErrUnknownIllness)
	}

	bound := max(drawBound, r.Max+1)
	for {
		d := p.rng.IntN(bound)
		if r.contains(d) {
			return d, nil
		}
	}
}

// Override replaces the range of an existing illness.
func (p *RecoveryPolicy) Override(illness, minDays, maxDays int) error {
	if illness <= 0 || minDays <= 0 || maxDays <= 0 || minDays > maxDays {
		return fmt.Errorf("illness %d [%d,%d]: %w", illness, minDays, maxDays, ErrInvalidRange)
	}
	if _, ok := p.ranges[illness]; !ok {
		return fmt.Errorf("override illness %d: %w", illness, ErrUnknownIllness)
	}
	p.ranges[illness] = Range{Min: minDays, Max: maxDays}
	return nil
}

// Range returns the configured range for an illness.
func (p *RecoveryPolicy) Range(illness int) (Range, bool) {
	r, ok := p.ranges[illness]
	return r, ok
}

// Knows reports whether the illness has a table entry.
func (p *RecoveryPolicy) Knows(illness int) bool {
	_, ok := p.ranges[illness]
	return ok
}

// Illnesses returns every known illness code in ascending order.
func (p *RecoveryPolicy) Illnesses() []int {
	return slices.Sorted(maps.Keys(p.ranges))
}
