// Package lens provides composable, pure accessors for immutable values.
//
// A Lens[W, P] pairs a getter extracting part P from whole W with a setter
// producing a new W with P replaced, leaving all other structure unchanged.
// Well-formed lenses satisfy the three lens laws:
//
//	Set(w, Get(w)) == w          // get-set
//	Get(Set(w, p)) == p          // set-get
//	Set(Set(w, p1), p2) == Set(w, p2)  // set-set
//
// The laws are invariants the constructor's caller must uphold; they are
// not checked at runtime. Lenses with a fallback over an absent focus
// (MapKey, Path) satisfy the laws only when the focus is present:
// Set(w, Get(w)) on an absent key materializes the fallback (or nil) as an
// explicit entry. Lenses compose associatively via Compose, which builds
// arbitrarily deep path accessors without re-deriving intermediate
// structure.
package lens

// Lens is a bidirectional, pure accessor focusing part P of whole W.
// Both functions must be total and side-effect free.
type Lens[W, P any] struct {
	get func(W) P
	set func(W, P) W
}

// New creates a lens from a getter and a setter. The caller is responsible
// for the lens laws holding.
func New[W, P any](get func(W) P, set func(W, P) W) Lens[W, P] {
	return Lens[W, P]{get: get, set: set}
}

// Get extracts the focused part.
func (l Lens[W, P]) Get(w W) P {
	return l.get(w)
}

// Set returns a new whole with the focused part replaced.
func (l Lens[W, P]) Set(w W, p P) W {
	return l.set(w, p)
}

// Modify applies fn to the focused part and sets the result back.
func (l Lens[W, P]) Modify(w W, fn func(P) P) W {
	return l.set(w, fn(l.get(w)))
}

// Identity creates a lens focusing the whole value itself.
func Identity[W any]() Lens[W, W] {
	return Lens[W, W]{
		get: func(w W) W { return w },
		set: func(_ W, w W) W { return w },
	}
}

// Compose chains two lenses into one focusing through both:
// Get goes outer-then-inner, Set rebuilds the outer whole around the
// updated inner part. Composition is associative.
func Compose[A, B, C any](outer Lens[A, B], inner Lens[B, C]) Lens[A, C] {
	return Lens[A, C]{
		get: func(a A) C {
			return inner.get(outer.get(a))
		},
		set: func(a A, c C) A {
			return outer.set(a, inner.set(outer.get(a), c))
		},
	}
}

// MapKey creates a lens for the value at a map key. Get returns fallback
// when the key is absent; Set copies the map before inserting, so the
// original whole is never mutated.
func MapKey[K comparable, V any](key K, fallback V) Lens[map[K]V, V] {
	return Lens[map[K]V, V]{
		get: func(m map[K]V) V {
			if v, ok := m[key]; ok {
				return v
			}
			return fallback
		},
		set: func(m map[K]V, v V) map[K]V {
			out := make(map[K]V, len(m)+1)
			for k, val := range m {
				out[k] = val
			}
			out[key] = v
			return out
		},
	}
}

// Index creates a lens for the element at a slice index. Get returns
// fallback when the index is out of range; Set copies the slice before
// replacing the element and returns the whole unchanged when the index is
// out of range.
func Index[T any](i int, fallback T) Lens[[]T, T] {
	return Lens[[]T, T]{
		get: func(s []T) T {
			if i >= 0 && i < len(s) {
				return s[i]
			}
			return fallback
		},
		set: func(s []T, v T) []T {
			if i < 0 || i >= len(s) {
				return s
			}
			out := make([]T, len(s))
			copy(out, s)
			out[i] = v
			return out
		},
	}
}
