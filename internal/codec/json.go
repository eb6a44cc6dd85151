package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Tagged encodings for the types JSON cannot represent natively. Everything
// else uses its native JSON form, so payloads stay readable:
//
//	Str   → "hello"
//	Int   → 42
//	Bool  → true
//	Tuple → [ ... ]
//	Map   → { ... }
//	Dec   → {"$dec": "1.25"}
//	OMap  → {"$omap": [["k", v], ...]}
//
// JSON null and floats are rejected on decode.
const (
	tagDec  = "$dec"
	tagOMap = "$omap"
)

// Marshal serializes a value to its JSON wire form. The encoding is
// lossless: Unmarshal(Marshal(v)) yields a value Equal to v.
func Marshal(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Str:
		return marshalString(string(val))
	case Int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case Bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case Dec:
		return []byte(fmt.Sprintf(`{"%s":%s}`, tagDec, mustQuote(val.String()))), nil
	case Tuple:
		return marshalTuple(val)
	case Map:
		return marshalMap(val)
	case OMap:
		return marshalOMap(val)
	case nil:
		return nil, fmt.Errorf("cannot marshal nil value")
	default:
		return nil, fmt.Errorf("unknown value type: %T", v)
	}
}

// marshalString encodes a string without HTML escaping.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("marshal string: %w", err)
	}
	// Encoder appends a trailing newline
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func mustQuote(s string) string {
	b, err := marshalString(s)
	if err != nil {
		panic(err) // strings always encode
	}
	return string(b)
}

func marshalTuple(t Tuple) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := Marshal(elem)
		if err != nil {
			return nil, fmt.Errorf("tuple[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalMap(m Map) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range sortedKeys(m) {
		if err := validKey(k); err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(mustQuote(k))
		buf.WriteByte(':')
		b, err := Marshal(m[k])
		if err != nil {
			return nil, fmt.Errorf("map[%q]: %w", k, err)
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalOMap(m OMap) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"%s":[`, tagOMap)
	for i, p := range m {
		if err := validKey(p.Key); err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('[')
		buf.WriteString(mustQuote(p.Key))
		buf.WriteByte(',')
		b, err := Marshal(p.Val)
		if err != nil {
			return nil, fmt.Errorf("omap[%q]: %w", p.Key, err)
		}
		buf.Write(b)
		buf.WriteByte(']')
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

// Unmarshal parses a JSON wire form back into a value. Floats and null are
// rejected; integers out of int64 range are rejected.
func Unmarshal(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return FromGo(raw)
}

// FromGo converts a plain Go value (as produced by encoding/json or
// yaml.v3 decoding into any) to a codec Value. Recognizes the codec's
// tagged object forms. Rejects nil, floats, and unsupported types.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is not a supported content value")
	case string:
		return Str(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("floats are not supported; use a tagged decimal: {\"$dec\": %q}", s)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", s)
		}
		return Int(n), nil
	case []any:
		t := make(Tuple, len(val))
		for i, elem := range val {
			cv, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("tuple[%d]: %w", i, err)
			}
			t[i] = cv
		}
		return t, nil
	case map[string]any:
		return fromGoObject(val)
	case Value:
		return val, nil
	default:
		return nil, fmt.Errorf("unsupported content type: %T", v)
	}
}

// fromGoObject decodes a JSON object, recognizing tagged forms.
func fromGoObject(obj map[string]any) (Value, error) {
	if len(obj) == 1 {
		if raw, ok := obj[tagDec]; ok {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%s tag requires a string, got %T", tagDec, raw)
			}
			return NewDec(s)
		}
		if raw, ok := obj[tagOMap]; ok {
			return fromGoOMap(raw)
		}
	}

	m := make(Map, len(obj))
	for k, elem := range obj {
		if err := validKey(k); err != nil {
			return nil, err
		}
		cv, err := FromGo(elem)
		if err != nil {
			return nil, fmt.Errorf("map[%q]: %w", k, err)
		}
		m[k] = cv
	}
	return m, nil
}

func fromGoOMap(raw any) (Value, error) {
	entries, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s tag requires an array of pairs, got %T", tagOMap, raw)
	}
	om := make(OMap, 0, len(entries))
	for i, entry := range entries {
		pair, ok := entry.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("%s[%d]: entry must be a [key, value] pair", tagOMap, i)
		}
		key, ok := pair[0].(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: key must be a string, got %T", tagOMap, i, pair[0])
		}
		if err := validKey(key); err != nil {
			return nil, err
		}
		if _, dup := om.Get(key); dup {
			return nil, fmt.Errorf("%s[%d]: duplicate key %q", tagOMap, i, key)
		}
		cv, err := FromGo(pair[1])
		if err != nil {
			return nil, fmt.Errorf("%s[%q]: %w", tagOMap, key, err)
		}
		om = append(om, Pair{Key: key, Val: cv})
	}
	return om, nil
}

// ToGo converts a Value back to plain Go types for display and YAML
// comparison. Tagged types keep their tagged object shape so the result
// round-trips through FromGo.
func ToGo(v Value) any {
	switch val := v.(type) {
	case Str:
		return string(val)
	case Int:
		return int64(val)
	case Bool:
		return bool(val)
	case Dec:
		return map[string]any{tagDec: val.String()}
	case Tuple:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	case Map:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToGo(elem)
		}
		return out
	case OMap:
		entries := make([]any, len(val))
		for i, p := range val {
			entries[i] = []any{p.Key, ToGo(p.Val)}
		}
		return map[string]any{tagOMap: entries}
	default:
		return nil
	}
}
