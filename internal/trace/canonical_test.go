package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", `"hello"`},
		{"int", 42, `42`},
		{"int64", int64(-7), `-7`},
		{"true", true, `true`},
		{"false", false, `false`},
		{"empty array", []any{}, `[]`},
		{"empty object", map[string]any{}, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_KeysSorted(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"zebra": 1,
		"alpha": 2,
		"mid":   3,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mid":3,"zebra":1}`, string(got))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	got, err := MarshalCanonical("<a>&</a>")
	require.NoError(t, err)
	assert.Equal(t, `"<a>&</a>"`, string(got))
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "e" + combining acute accent normalizes to the precomposed form.
	decomposed := "cafe\u0301"
	precomposed := "caf\u00e9"

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(precomposed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonical_RejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(3.14)
	assert.Error(t, err)

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)
}

func TestMarshalCanonical_Nested(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"b": []any{1, map[string]any{"y": true, "x": "s"}},
		"a": "v",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"v","b":[1,{"x":"s","y":true}]}`, string(got))
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	in := map[string]any{
		"scenario": "repeat",
		"events":   []any{map[string]any{"seq": int64(1), "action": "doc.set"}},
	}
	first, err := MarshalCanonical(in)
	require.NoError(t, err)
	for range 10 {
		again, err := MarshalCanonical(in)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestCompareUTF16(t *testing.T) {
	// U+1D306 (surrogate pair in UTF-16, high surrogate 0xD834) sorts before
	// U+FB00 under UTF-16 code units, after it under UTF-8 bytes.
	assert.Negative(t, compareUTF16("\U0001D306", "ﬀ"))
	assert.Positive(t, compareUTF16("ﬀ", "\U0001D306"))
	assert.Zero(t, compareUTF16("same", "same"))
	assert.Negative(t, compareUTF16("ab", "abc"))
}
