package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_Scalars(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"text", IRString("LEO"), `"LEO"`},
		{"empty text", IRString(""), `""`},
		{"int", IRInt(180), "180"},
		{"negative int", IRInt(-90), "-90"},
		{"min int64", IRInt(math.MinInt64), "-9223372036854775808"},
		{"float", IRFloat(0.001), "0.001"},
		{"whole float", IRFloat(2.2), "2.2"},
		{"integral float keeps fraction", IRFloat(3), "3.0"},
		{"large float", IRFloat(42164e3), "4.2164e+07"},
		{"bool", IRBool(true), "true"},
		{"null", IRNull{}, "null"},
		{"go nil", nil, "null"},
		{"go float", 0.9, "0.9"},
		{"go int", 27, "27"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonical_RejectsNonFiniteFloats(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := MarshalCanonical(IRObject{"drag_coefficient": IRFloat(f)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-finite")
	}
}

func TestMarshalCanonical_SortedCompactObjects(t *testing.T) {
	obj := IRObject{
		"semi_major_axis": IRFloat(6878.0),
		"eccentricity":    IRFloat(0.001),
		"true_anomaly":    IRNull{},
		"templates":       IRArray{IRString("LEO"), IRString("GEO")},
		"budget":          IRObject{"payload": IRFloat(12.5), "bus": IRInt(3)},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t,
		`{"budget":{"bus":3,"payload":12.5},"eccentricity":0.001,"semi_major_axis":6878.0,"templates":["LEO","GEO"],"true_anomaly":null}`,
		string(result))
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+10000 encodes as the surrogate pair D800 DC00, which sorts before
	// U+E000 in UTF-16 even though its UTF-8 bytes sort after.
	obj := IRObject{
		"\uE000":     IRInt(1),
		"\U00010000": IRInt(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(IRString("<Body & Lateral>"))
	require.NoError(t, err)
	assert.Equal(t, `"<Body & Lateral>"`, string(result))
}

func TestMarshalCanonical_KeepsNormalizationForms(t *testing.T) {
	composed := "Caf\u00e9 Station"
	decomposed := "Cafe\u0301 Station"

	a, err := MarshalCanonical(IRObject{composed: IRString(composed)})
	require.NoError(t, err)
	b, err := MarshalCanonical(IRObject{decomposed: IRString(decomposed)})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "{\""+decomposed+"\":\""+decomposed+"\"}", string(b))
}

func TestMarshalCanonical_InvalidUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input IRValue
	}{
		{"value", IRString("station \xff")},
		{"key", IRObject{"\xfe": IRInt(1)}},
		{"nested", IRArray{IRObject{"name": IRString("a\xc3")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCanonical(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "not valid UTF-8")
		})
	}
}

func TestMarshalCanonical_Escapes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"newline", "a\nb", `"a\nb"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"line separator stays literal", "a\u2028b\u2029c", "\"a\u2028b\u2029c\""},
		{"escaped text is not a separator", `see \u2028`, `"see \\u2028"`},
		{"mixed", "lit \\u2029 and real \u2029", "\"lit \\\\u2029 and real \u2029\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonical_StableAcrossRoundTrip(t *testing.T) {
	cases := []IRValue{
		IRObject{"inclination": IRFloat(98.7), "name": IRString("SSO-LEO")},
		IRArray{IRFloat(0.001), IRNull{}},
		IRObject{"nested": IRObject{"steps": IRInt(60), "ratio": IRFloat(1)}},
	}

	for _, original := range cases {
		first, err := MarshalCanonical(original)
		require.NoError(t, err)

		parsed, err := UnmarshalIRValue(first)
		require.NoError(t, err)
		assert.Equal(t, original, parsed)

		second, err := MarshalCanonical(parsed)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func FuzzMarshalCanonicalIdempotent(f *testing.F) {
	f.Add(`{"a":1,"b":"test"}`)
	f.Add(`[1.5,2,null]`)
	f.Add(`{"orbit":{"eccentricity":0.001}}`)
	f.Add(`3.0`)

	f.Fuzz(func(t *testing.T, jsonStr string) {
		val, err := UnmarshalIRValue([]byte(jsonStr))
		if err != nil {
			t.Skip()
		}
		first, err := MarshalCanonical(val)
		if err != nil {
			t.Skip()
		}
		val2, err := UnmarshalIRValue(first)
		require.NoError(t, err)
		second, err := MarshalCanonical(val2)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
