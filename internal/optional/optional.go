// Package optional implements an optional value for types that have
// no meaningful zero, such as the latest sample of a metric series.
package optional

import "github.com/hostdiag/wifiradar/internal/runtimex"

// Value is either empty or holds a T. The zero value is empty, which
// makes it safe to embed in structs without initialization.
type Value[T any] struct {
	value T
	ok    bool
}

// None constructs an empty [Value].
func None[T any]() Value[T] {
	return Value[T]{}
}

// Some constructs a [Value] holding the given value.
func Some[T any](value T) Value[T] {
	return Value[T]{value: value, ok: true}
}

// IsNone returns whether this [Value] is empty.
func (v Value[T]) IsNone() bool {
	return !v.ok
}

// Unwrap returns the held value and panics when the [Value] is
// empty. Callers must check [Value.IsNone] first.
func (v Value[T]) Unwrap() T {
	runtimex.Assert(v.ok, "optional: unwrap of empty value")
	return v.value
}
