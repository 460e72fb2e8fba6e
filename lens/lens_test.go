package lens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	Name    string
	Balance int
}

type app struct {
	Account account
	Tags    []string
}

func accountLens() Lens[app, account] {
	return New(
		func(a app) account { return a.Account },
		func(a app, acc account) app { a.Account = acc; return a },
	)
}

func balanceLens() Lens[account, int] {
	return New(
		func(a account) int { return a.Balance },
		func(a account, b int) account { a.Balance = b; return a },
	)
}

func TestLens_Laws(t *testing.T) {
	l := balanceLens()
	w := account{Name: "alice", Balance: 10}

	// get-set: writing back what was read changes nothing
	assert.Equal(t, w, l.Set(w, l.Get(w)))

	// set-get: what was written is read back
	assert.Equal(t, 42, l.Get(l.Set(w, 42)))

	// set-set: the last write wins, no hidden accumulation
	assert.Equal(t, l.Set(w, 7), l.Set(l.Set(w, 3), 7))
}

func TestLens_Modify(t *testing.T) {
	l := balanceLens()
	w := account{Name: "alice", Balance: 10}

	got := l.Modify(w, func(b int) int { return b * 2 })
	assert.Equal(t, 20, got.Balance)
	assert.Equal(t, "alice", got.Name, "unfocused structure is untouched")
	assert.Equal(t, 10, w.Balance, "original whole is never mutated")
}

func TestIdentity(t *testing.T) {
	l := Identity[account]()
	w := account{Name: "alice", Balance: 10}

	assert.Equal(t, w, l.Get(w))
	assert.Equal(t, account{Name: "bob"}, l.Set(w, account{Name: "bob"}))
}

func TestCompose(t *testing.T) {
	l := Compose(accountLens(), balanceLens())
	w := app{Account: account{Name: "alice", Balance: 10}, Tags: []string{"x"}}

	assert.Equal(t, 10, l.Get(w))

	got := l.Set(w, 99)
	assert.Equal(t, 99, got.Account.Balance)
	assert.Equal(t, "alice", got.Account.Name)
	assert.Equal(t, []string{"x"}, got.Tags)

	// laws hold through composition
	assert.Equal(t, w, l.Set(w, l.Get(w)))
	assert.Equal(t, 5, l.Get(l.Set(w, 5)))
}

func TestCompose_Associative(t *testing.T) {
	type box struct{ App app }

	l1 := New(
		func(b box) app { return b.App },
		func(b box, a app) box { b.App = a; return b },
	)
	l2 := accountLens()
	l3 := balanceLens()

	left := Compose(Compose(l1, l2), l3)
	right := Compose(l1, Compose(l2, l3))

	w := box{App: app{Account: account{Name: "alice", Balance: 10}}}

	assert.Equal(t, left.Get(w), right.Get(w))
	assert.Equal(t, left.Set(w, 77), right.Set(w, 77))
}

func TestMapKey(t *testing.T) {
	l := MapKey("count", 0)
	m := map[string]int{"count": 3, "other": 9}

	assert.Equal(t, 3, l.Get(m))
	assert.Equal(t, 0, l.Get(map[string]int{}), "fallback for absent key")

	got := l.Set(m, 5)
	assert.Equal(t, 5, got["count"])
	assert.Equal(t, 9, got["other"])
	assert.Equal(t, 3, m["count"], "original map is never mutated")

	// set on nil map allocates
	assert.Equal(t, map[string]int{"count": 1}, l.Set(nil, 1))
}

func TestIndex(t *testing.T) {
	l := Index(1, "")
	s := []string{"a", "b", "c"}

	assert.Equal(t, "b", l.Get(s))
	assert.Equal(t, "", Index(9, "").Get(s), "fallback for out of range")

	got := l.Set(s, "B")
	assert.Equal(t, []string{"a", "B", "c"}, got)
	assert.Equal(t, []string{"a", "b", "c"}, s, "original slice is never mutated")

	assert.Equal(t, s, Index(9, "").Set(s, "x"), "out-of-range set is a no-op")
}

func TestPath_Get(t *testing.T) {
	doc := map[string]any{
		"user": map[string]any{
			"name":  "alice",
			"score": 10,
		},
	}

	assert.Equal(t, "alice", Path("user", "name").Get(doc))
	assert.Nil(t, Path("user", "missing").Get(doc))
	assert.Nil(t, Path("user", "name", "deeper").Get(doc), "descending through a leaf yields nil")

	got := Path().Get(doc)
	assert.Equal(t, doc, got)
}

func TestPath_Set_CopyOnWrite(t *testing.T) {
	shared := map[string]any{"untouched": true}
	doc := map[string]any{
		"user":  map[string]any{"score": 10},
		"other": shared,
	}

	got := Path("user", "score").Set(doc, 20)

	require.Equal(t, 20, got["user"].(map[string]any)["score"])
	assert.Equal(t, 10, doc["user"].(map[string]any)["score"], "original document is never mutated")

	// untouched siblings share structure with the original
	if gotOther, ok := got["other"].(map[string]any); assert.True(t, ok) {
		gotOther["untouched"] = false
		assert.False(t, shared["untouched"].(bool), "sibling maps are shared, not copied")
	}
}

func TestPath_Set_CreatesIntermediates(t *testing.T) {
	got := Path("a", "b", "c").Set(map[string]any{}, 1)
	assert.Equal(t, 1, Path("a", "b", "c").Get(got))
}

func TestPath_Laws(t *testing.T) {
	l := Path("user", "score")
	doc := map[string]any{"user": map[string]any{"score": 10, "name": "alice"}}

	assert.Equal(t, doc, l.Set(doc, l.Get(doc)))
	assert.Equal(t, 42, l.Get(l.Set(doc, 42)))
	assert.Equal(t, l.Set(doc, 7), l.Set(l.Set(doc, 3), 7))
}

func TestLens_AbsentFocusMaterializesFallback(t *testing.T) {
	// Writing back what was read is only a no-op when the focus exists:
	// on an absent key the fallback becomes an explicit entry.
	m := map[string]int{"other": 9}
	got := MapKey("count", 0).Set(m, MapKey("count", 0).Get(m))
	assert.Equal(t, map[string]int{"other": 9, "count": 0}, got)

	doc := map[string]any{}
	l := Path("user", "score")
	assert.Equal(t, map[string]any{"user": map[string]any{"score": nil}}, l.Set(doc, l.Get(doc)))
}
