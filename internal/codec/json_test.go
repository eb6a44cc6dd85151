package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	data, err := Marshal(v)
	require.NoError(t, err)
	got, err := Unmarshal(data)
	require.NoError(t, err)
	return got
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    Value
	}{
		{"string", Str("hello")},
		{"string unicode", Str("héllo wörld  ")},
		{"int", Int(42)},
		{"int negative", Int(-7)},
		{"int large", Int(1 << 60)},
		{"bool", Bool(true)},
		{"decimal", MustDec("123.456")},
		{"decimal negative exponent", MustDec("1E-10")},
		{"tuple", Tuple{Str("alice"), Int(12345)}},
		{"tuple nested", Tuple{Tuple{Int(1)}, Map{"k": Bool(false)}}},
		{"map", Map{"name": Str("cart"), "count": Int(5)}},
		{"omap", OMap{{Key: "z", Val: Int(1)}, {Key: "a", Val: Int(2)}}},
		{"omap nested", OMap{{Key: "inner", Val: OMap{{Key: "x", Val: MustDec("0.5")}}}}},
		{"empty tuple", Tuple{}},
		{"empty map", Map{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, tt.v)
			assert.True(t, Equal(tt.v, got), "round trip changed value: %v -> %v", tt.v, got)
		})
	}
}

func TestOMapRoundTripKeepsOrder(t *testing.T) {
	m := OMap{{Key: "zebra", Val: Int(1)}, {Key: "apple", Val: Int(2)}}
	got := roundTrip(t, m).(OMap)
	assert.Equal(t, []string{"zebra", "apple"}, got.Keys())
}

func TestUnmarshalRejectsFloats(t *testing.T) {
	_, err := Unmarshal([]byte(`1.5`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$dec")

	_, err = Unmarshal([]byte(`{"price": 9.99}`))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`1e10`))
	assert.Error(t, err)
}

func TestUnmarshalRejectsNull(t *testing.T) {
	_, err := Unmarshal([]byte(`null`))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{"k": null}`))
	assert.Error(t, err)
}

func TestUnmarshalTaggedDecimal(t *testing.T) {
	v, err := Unmarshal([]byte(`{"$dec": "0.125"}`))
	require.NoError(t, err)
	d, ok := v.(Dec)
	require.True(t, ok)
	assert.Equal(t, 0, d.Cmp(MustDec("0.125")))
}

func TestUnmarshalTaggedDecimalBadShape(t *testing.T) {
	_, err := Unmarshal([]byte(`{"$dec": 5}`))
	assert.Error(t, err)
}

func TestUnmarshalOMapDuplicateKey(t *testing.T) {
	_, err := Unmarshal([]byte(`{"$omap": [["a", 1], ["a", 2]]}`))
	assert.Error(t, err)
}

func TestReservedMapKeys(t *testing.T) {
	_, err := Marshal(Map{"$weird": Int(1)})
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{"$weird": 1, "other": 2}`))
	assert.Error(t, err)
}

func TestMarshalMapDeterministic(t *testing.T) {
	m := Map{"b": Int(2), "a": Int(1), "c": Int(3)}
	first, err := Marshal(m)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Marshal(m)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
	assert.Equal(t, `{"a":1,"b":2,"c":3}`, string(first))
}

func TestMarshalNoHTMLEscaping(t *testing.T) {
	data, err := Marshal(Str("<a> & </a>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a> & </a>"`, string(data))
}

func TestCanonicalNFCNormalization(t *testing.T) {
	// U+0065 U+0301 (e + combining acute) normalizes to U+00E9 (é)
	composed := "\u00e9"
	decomposed := "e\u0301"

	a, err := MarshalCanonical(Str(composed))
	require.NoError(t, err)
	b, err := MarshalCanonical(Str(decomposed))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestCanonicalRoundTrip(t *testing.T) {
	tests := []Value{
		Str("hello"),
		Int(7),
		MustDec("2.50"),
		Map{"x": Tuple{Int(1), Int(2)}},
		OMap{{Key: "first", Val: Str("a")}, {Key: "second", Val: Str("b")}},
	}
	for _, v := range tests {
		data, err := MarshalCanonical(v)
		require.NoError(t, err)
		got, err := Unmarshal(data)
		require.NoError(t, err)
		assert.True(t, Equal(v, got), "canonical round trip changed %v", v)
	}
}

func TestFromGoYAMLShapes(t *testing.T) {
	// yaml.v3 produces map[string]any with int values
	v, err := FromGo(map[string]any{"count": 3, "name": "bob"})
	require.NoError(t, err)
	m, ok := v.(Map)
	require.True(t, ok)
	assert.Equal(t, Int(3), m["count"])
	assert.Equal(t, Str("bob"), m["name"])
}

func TestToGoRoundTrip(t *testing.T) {
	v := Map{"dec": MustDec("1.5"), "om": OMap{{Key: "k", Val: Int(1)}}}
	back, err := FromGo(ToGo(v))
	require.NoError(t, err)
	assert.True(t, Equal(v, back))
}
