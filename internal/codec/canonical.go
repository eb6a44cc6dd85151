package codec

import (
	"bytes"
	"fmt"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces the canonical wire form used for durable
// storage and journal hashing. It is Marshal plus NFC normalization of all
// strings and keys, following RFC 8785 conventions:
//
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings NFC normalized
//  4. No floats, no null
func MarshalCanonical(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Str:
		return marshalString(norm.NFC.String(string(val)))
	case Tuple:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := MarshalCanonical(elem)
			if err != nil {
				return nil, fmt.Errorf("tuple[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case Map:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range sortedKeys(val) {
			if err := validKey(k); err != nil {
				return nil, err
			}
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(mustQuote(norm.NFC.String(k)))
			buf.WriteByte(':')
			b, err := MarshalCanonical(val[k])
			if err != nil {
				return nil, fmt.Errorf("map[%q]: %w", k, err)
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case OMap:
		// Insertion order is the OMap's semantics; canonical form keeps it.
		var buf bytes.Buffer
		fmt.Fprintf(&buf, `{"%s":[`, tagOMap)
		for i, p := range val {
			if err := validKey(p.Key); err != nil {
				return nil, err
			}
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('[')
			buf.WriteString(mustQuote(norm.NFC.String(p.Key)))
			buf.WriteByte(',')
			b, err := MarshalCanonical(p.Val)
			if err != nil {
				return nil, fmt.Errorf("omap[%q]: %w", p.Key, err)
			}
			buf.Write(b)
			buf.WriteByte(']')
		}
		buf.WriteString("]}")
		return buf.Bytes(), nil
	default:
		// Int, Bool, Dec have a single textual form already.
		return Marshal(v)
	}
}

// sortedKeys returns map keys in UTF-16 code unit order.
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func sortedKeys(m Map) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

// compareKeysUTF16 compares strings by UTF-16 code units as RFC 8785
// requires. Must use unicode/utf16.Encode for correct surrogate handling.
func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	return 0
}
