// Package optional provides an explicit optional value type.
package optional

// Value holds either a T or nothing. The zero Value is empty.
type Value[T any] struct {
	v  T
	ok bool
}

// Some returns a Value holding v.
func Some[T any](v T) Value[T] {
	return Value[T]{v: v, ok: true}
}

// None returns an empty Value.
func None[T any]() Value[T] {
	return Value[T]{}
}

// Get returns the held value and whether it is present.
func (o Value[T]) Get() (T, bool) {
	return o.v, o.ok
}

// IsSome reports whether a value is present.
func (o Value[T]) IsSome() bool {
	return o.ok
}

// OrElse returns the held value, or def when empty.
func (o Value[T]) OrElse(def T) T {
	if !o.ok {
		return def
	}
	return o.v
}

// Map applies fn to the held value.
func Map[T, U any](o Value[T], fn func(T) U) Value[U] {
	if !o.ok {
		return None[U]()
	}
	return Some(fn(o.v))
}

// Pair is the result of Zip.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Zip is Some only when both a and b are present.
func Zip[A, B any](a Value[A], b Value[B]) Value[Pair[A, B]] {
	if !a.ok || !b.ok {
		return None[Pair[A, B]]()
	}
	return Some(Pair[A, B]{First: a.v, Second: b.v})
}
