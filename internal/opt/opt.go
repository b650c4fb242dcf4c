// Package opt holds the present-or-absent value used for optional
// references in the emitted tables.
package opt

// Value is either present (Some) or absent (None). The zero Value is None.
type Value[T any] struct {
	v       T
	present bool
}

// Some returns a present Value.
func Some[T any](v T) Value[T] {
	return Value[T]{v: v, present: true}
}

// None returns an absent Value.
func None[T any]() Value[T] {
	return Value[T]{}
}

// Get returns the value and whether it is present.
func (o Value[T]) Get() (T, bool) {
	return o.v, o.present
}

// Present reports whether the value is set.
func (o Value[T]) Present() bool {
	return o.present
}
