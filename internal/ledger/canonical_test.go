package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"int64", int64(-100), "-100"},
		{"uint64 zero", uint64(0), "0"},
		{"uint64 max", uint64(18446744073709551615), "18446744073709551615"},
		{"bump byte", uint8(255), "255"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"array of ints", []any{1, 2, 3}, "[1,2,3]"},
		{"simple object", map[string]any{"a": 1}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := map[string]any{
		"zebra": 1,
		"alpha": 2,
		"bump":  int64(255),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"bump":255,"zebra":1}`, string(result))
}

func TestMarshalCanonicalNoHTMLEscaping(t *testing.T) {
	result, err := MarshalCanonical("a<b>&c")
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(result))
}

func TestMarshalCanonicalNestedObject(t *testing.T) {
	obj := map[string]any{
		"post":   "abc",
		"author": "bob",
		"meta":   map[string]any{"b": 2, "a": 1},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"author":"bob","meta":{"a":1,"b":2},"post":"abc"}`, string(result))
}

func TestMarshalCanonicalRejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(3.14)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "float")

	_, err = MarshalCanonical(map[string]any{"x": 1.5})
	require.Error(t, err)
}

func TestMarshalCanonicalRejectsNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": nil})
	require.Error(t, err)
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// "é" as combining sequence (e + U+0301) must normalize to the
	// precomposed form (U+00E9) so both spellings hash identically.
	combining := "e\u0301"
	precomposed := "\u00e9"

	r1, err := MarshalCanonical(combining)
	require.NoError(t, err)
	r2, err := MarshalCanonical(precomposed)
	require.NoError(t, err)

	assert.Equal(t, string(r2), string(r1))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	// U+2028/U+2029 stay literal per RFC 8785.
	result, err := MarshalCanonical("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))

	// A literal backslash followed by "u2028" text stays escaped.
	result, err = MarshalCanonical(`\u2028`)
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(result))
}

func TestUTF16KeyOrdering(t *testing.T) {
	// U+FF61 (halfwidth ideographic full stop) is a single UTF-16 code unit
	// 0xFF61; U+10000 encodes as the surrogate pair 0xD800 0xDC00. UTF-16
	// ordering therefore puts U+10000 before U+FF61, the reverse of UTF-8
	// byte ordering.
	obj := map[string]any{
		"｡":     1,
		"\U00010000": 2,
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"｡\":1}", string(result))
}
