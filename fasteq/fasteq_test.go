package fasteq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructural(t *testing.T) {
	type payload struct {
		Items []int
		Meta  map[string]string
	}

	eq := Structural[payload]()

	a := payload{Items: []int{1, 2}, Meta: map[string]string{"k": "v"}}
	b := payload{Items: []int{1, 2}, Meta: map[string]string{"k": "v"}}
	c := payload{Items: []int{1, 3}, Meta: map[string]string{"k": "v"}}

	assert.True(t, eq(a, a), "reflexive")
	assert.True(t, eq(a, b))
	assert.True(t, eq(b, a), "symmetric")
	assert.False(t, eq(a, c))
}

func TestComparable(t *testing.T) {
	eq := Comparable[int]()
	assert.True(t, eq(3, 3))
	assert.False(t, eq(3, 4))
}

func TestByKey(t *testing.T) {
	type doc struct {
		Version int
		Body    string
	}

	// Versions stand in for content: same version, same document.
	eq := ByKey(func(d doc) int { return d.Version })

	assert.True(t, eq(doc{Version: 1, Body: "a"}, doc{Version: 1, Body: "b"}))
	assert.False(t, eq(doc{Version: 1}, doc{Version: 2}))
}

func TestShared(t *testing.T) {
	calls := 0
	fallback := Eq[*int](func(a, b *int) bool {
		calls++
		return a != nil && b != nil && *a == *b
	})
	eq := Shared(fallback)

	x := 5
	y := 5

	assert.True(t, eq(&x, &x))
	assert.Zero(t, calls, "identical pointers short-circuit the fallback")

	assert.True(t, eq(&x, &y))
	assert.Equal(t, 1, calls, "distinct pointers delegate to the fallback")
}

func TestOption(t *testing.T) {
	eq := Option(Comparable[int]())

	three := 3
	alsoThree := 3
	four := 4

	assert.True(t, eq(nil, nil))
	assert.False(t, eq(&three, nil))
	assert.False(t, eq(nil, &three))
	assert.True(t, eq(&three, &alsoThree))
	assert.False(t, eq(&three, &four))
}

func TestSlice(t *testing.T) {
	eq := Slice(Comparable[string]())

	assert.True(t, eq(nil, nil))
	assert.True(t, eq([]string{"a", "b"}, []string{"a", "b"}))
	assert.False(t, eq([]string{"a"}, []string{"a", "b"}), "length short-circuit")
	assert.False(t, eq([]string{"a", "b"}, []string{"a", "c"}))
}

func TestMap(t *testing.T) {
	eq := Map[string](Comparable[int]())

	assert.True(t, eq(nil, nil))
	assert.True(t, eq(map[string]int{"a": 1}, map[string]int{"a": 1}))
	assert.False(t, eq(map[string]int{"a": 1}, map[string]int{"a": 1, "b": 2}), "size short-circuit")
	assert.False(t, eq(map[string]int{"a": 1}, map[string]int{"a": 2}))
	assert.False(t, eq(map[string]int{"a": 1}, map[string]int{"b": 1}), "missing key")
}
