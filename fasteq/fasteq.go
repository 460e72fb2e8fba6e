// Package fasteq provides pluggable equivalence checks for change detection.
//
// An Eq[T] decides whether two values of T are observably the same. The
// store and its listeners use an Eq wherever they must answer "did this
// value meaningfully change". The default is structural equality; callers
// may substitute cheaper checks (pointer identity, version counters,
// derived keys) wherever the domain allows.
//
// Every Eq is expected to be reflexive and symmetric. It need not equal
// structural equality: a version-number shortcut is valid as long as it is
// consistent with the domain's notion of "no observable difference". That
// consistency is a design obligation on the caller, not a runtime check.
package fasteq

import "reflect"

// Eq reports whether a and b are equivalent for change-detection purposes.
type Eq[T any] func(a, b T) bool

// Structural returns the default equivalence: deep structural equality.
// It works for any type; callers are never required to provide their own.
func Structural[T any]() Eq[T] {
	return func(a, b T) bool {
		return reflect.DeepEqual(a, b)
	}
}

// Comparable returns == for types that support it. Cheaper than Structural
// for scalar and small struct types.
func Comparable[T comparable]() Eq[T] {
	return func(a, b T) bool {
		return a == b
	}
}

// ByKey compares values by a derived key (version counter, hash, revision).
// Valid only when equal keys imply no observable difference.
func ByKey[T any, K comparable](key func(T) K) Eq[T] {
	return func(a, b T) bool {
		return key(a) == key(b)
	}
}

// Shared tries pointer identity first and falls back to the given check
// only when the pointers differ. Valid only for values with stable
// identity: two distinct pointers to equal payloads still compare through
// the fallback.
func Shared[T any](fallback Eq[*T]) Eq[*T] {
	return func(a, b *T) bool {
		if a == b {
			return true
		}
		return fallback(a, b)
	}
}

// Option lifts an element check to optional values represented as
// pointers. Presence is compared first: both nil is equivalent, exactly
// one nil is not.
func Option[T any](elem Eq[T]) Eq[*T] {
	return func(a, b *T) bool {
		if a == nil || b == nil {
			return a == nil && b == nil
		}
		return elem(*a, *b)
	}
}

// Slice lifts an element check to ordered sequences. Length is compared
// first, then elements pairwise in order.
func Slice[T any](elem Eq[T]) Eq[[]T] {
	return func(a, b []T) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !elem(a[i], b[i]) {
				return false
			}
		}
		return true
	}
}

// Map lifts a value check to key-value mappings. Size is compared first,
// then entries pairwise by key.
func Map[K comparable, V any](elem Eq[V]) Eq[map[K]V] {
	return func(a, b map[K]V) bool {
		if len(a) != len(b) {
			return false
		}
		for k, av := range a {
			bv, ok := b[k]
			if !ok || !elem(av, bv) {
				return false
			}
		}
		return true
	}
}
