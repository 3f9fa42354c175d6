// Package pool defines the fixed-capacity slot allocator used for beds and theatres.
// This package is PURE and must NOT import any infrastructure packages.
package pool

import (
	"errors"
	"fmt"
	"iter"
)

// ErrResourceExhausted is returned when every slot in a pool is taken.
var ErrResourceExhausted = errors.New("resource exhausted")

type slot[T any] struct {
	item T
	used bool
}

// Pool is an ordered set of slots, each either free or holding one item.
// Slot indices are stable for the lifetime of the pool.
// A Pool is not safe for concurrent use.
type Pool[T any] struct {
	name  string
	slots []slot[T]
	used  int
}

// New creates a pool with capacity free slots. Negative capacities are treated as zero.
func New[T any](name string, capacity int) *Pool[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Pool[T]{
		name:  name,
		slots: make([]slot[T], capacity),
	}
}

// Name returns the label given at construction ("beds", "theatres").
func (p *Pool[T]) Name() string {
	return p.name
}

// Capacity returns the number of slots.
func (p *Pool[T]) Capacity() int {
	return len(p.slots)
}

// OccupiedCount returns the number of held slots.
func (p *Pool[T]) OccupiedCount() int {
	return p.used
}

// FindFirstFree returns the lowest free index.
func (p *Pool[T]) FindFirstFree() (int, bool) {
	for i := range p.slots {
		if !p.slots[i].used {
			return i, true
		}
	}
	return -1, false
}

// TryAcquire binds item to the lowest free slot.
func (p *Pool[T]) TryAcquire(item T) (int, error) {
	idx, ok := p.FindFirstFree()
	if !ok {
		return -1, fmt.Errorf("%s: all %d slots occupied: %w", p.name, len(p.slots), ErrResourceExhausted)
	}
	p.slots[idx] = slot[T]{item: item, used: true}
	p.used++
	return idx, nil
}

// Release frees a slot and returns what it held.
// Releasing a free or unknown slot is a no-op.
func (p *Pool[T]) Release(index int) (T, bool) {
	var zero T
	if !p.inRange(index) || !p.slots[index].used {
		return zero, false
	}
	item := p.slots[index].item
	p.slots[index] = slot[T]{}
	p.used--
	return item, true
}

// ReleaseAll frees every occupied slot and returns how many were freed.
func (p *Pool[T]) ReleaseAll() int {
	freed := 0
	for i := range p.slots {
		if _, ok := p.Release(i); ok {
			freed++
		}
	}
	return freed
}

// IsFree reports whether index names an existing, unoccupied slot.
func (p *Pool[T]) IsFree(index int) bool {
	return p.inRange(index) && !p.slots[index].used
}

// Get returns the item held at index.
func (p *Pool[T]) Get(index int) (T, bool) {
	var zero T
	if !p.inRange(index) || !p.slots[index].used {
		return zero, false
	}
	return p.slots[index].item, true
}

// Occupied yields (index, item) for every held slot in ascending index order.
// The pool must not be mutated while iterating except through Release of the
// current index.
func (p *Pool[T]) Occupied() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := range p.slots {
			if !p.slots[i].used {
				continue
			}
			if !yield(i, p.slots[i].item) {
				return
			}
		}
	}
}

func (p *Pool[T]) inRange(index int) bool {
	return index >= 0 && index < len(p.slots)
}
