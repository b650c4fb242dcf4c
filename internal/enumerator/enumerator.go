// Package enumerator provides the interning tables every devres phase
// writes into. Indices are assigned in first-insertion order and never
// change, so the backing slice can be emitted verbatim as a flat table.
package enumerator

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned by Get for an index that was never assigned.
var ErrOutOfRange = errors.New("enumerator: index out of range")

// ErrUnknown is returned by MustIndex for a value that was never inserted.
var ErrUnknown = errors.New("enumerator: value not registered")

// Registry is an ordered, injective value -> index table.
// It is not safe for concurrent use.
type Registry[T comparable] struct {
	values  []T
	indexes map[T]int
}

// New returns an empty Registry.
func New[T comparable]() *Registry[T] {
	return &Registry[T]{indexes: make(map[T]int)}
}

// NewWithCapacity returns an empty Registry sized for n values.
func NewWithCapacity[T comparable](n int) *Registry[T] {
	return &Registry[T]{
		values:  make([]T, 0, n),
		indexes: make(map[T]int, n),
	}
}

// Insert returns the index of v, assigning the next index if v is new.
func (r *Registry[T]) Insert(v T) int {
	if idx, ok := r.indexes[v]; ok {
		return idx
	}
	idx := len(r.values)
	r.values = append(r.values, v)
	r.indexes[v] = idx
	return idx
}

// Index returns the index of v without inserting it.
func (r *Registry[T]) Index(v T) (int, bool) {
	idx, ok := r.indexes[v]
	return idx, ok
}

// MustIndex is Index with an error for unknown values.
func (r *Registry[T]) MustIndex(v T) (int, error) {
	idx, ok := r.indexes[v]
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnknown, v)
	}
	return idx, nil
}

// Get returns the value stored at idx.
func (r *Registry[T]) Get(idx int) (T, error) {
	if idx < 0 || idx >= len(r.values) {
		var zero T
		return zero, fmt.Errorf("%w: %d (len %d)", ErrOutOfRange, idx, len(r.values))
	}
	return r.values[idx], nil
}

// Len returns the number of registered values.
func (r *Registry[T]) Len() int {
	return len(r.values)
}

// Values returns the registered values in index order. The slice is shared
// with the registry and must not be modified.
func (r *Registry[T]) Values() []T {
	return r.values
}
