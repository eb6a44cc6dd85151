package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Typed accessors used by operation bindings to declare the content shape a
// handler expects. Each returns a decode error on shape mismatch; callers
// surface that as a content decoding failure of the one operation.

// AsString expects a Str value.
func AsString(v Value) (string, error) {
	s, ok := v.(Str)
	if !ok {
		return "", typeErr("string", v)
	}
	return string(s), nil
}

// AsInt expects an Int value.
func AsInt(v Value) (int64, error) {
	n, ok := v.(Int)
	if !ok {
		return 0, typeErr("integer", v)
	}
	return int64(n), nil
}

// AsBool expects a Bool value.
func AsBool(v Value) (bool, error) {
	b, ok := v.(Bool)
	if !ok {
		return false, typeErr("boolean", v)
	}
	return bool(b), nil
}

// AsDec expects a Dec value, accepting a plain Int as an exact widening.
func AsDec(v Value) (Dec, error) {
	switch val := v.(type) {
	case Dec:
		return val, nil
	case Int:
		return MustDec(fmt.Sprintf("%d", int64(val))), nil
	default:
		return Dec{}, typeErr("decimal", v)
	}
}

// AsTuple expects a Tuple value.
func AsTuple(v Value) (Tuple, error) {
	t, ok := v.(Tuple)
	if !ok {
		return nil, typeErr("tuple", v)
	}
	return t, nil
}

// AsMap expects an unordered Map value.
func AsMap(v Value) (Map, error) {
	m, ok := v.(Map)
	if !ok {
		return nil, typeErr("map", v)
	}
	return m, nil
}

// AsOMap expects an ordered OMap value.
func AsOMap(v Value) (OMap, error) {
	m, ok := v.(OMap)
	if !ok {
		return nil, typeErr("ordered map", v)
	}
	return m, nil
}

// AsNone expects no content (nil). Operations like "get" or "increment"
// take no payload.
func AsNone(v Value) (struct{}, error) {
	if v != nil {
		return struct{}{}, fmt.Errorf("expected no content, got %s", TypeName(v))
	}
	return struct{}{}, nil
}

// DecodeRecord decodes a Map value into a kind-specific record struct via
// its JSON field tags. Unknown fields are rejected so a mistyped payload
// fails the operation instead of silently dropping data.
func DecodeRecord[T any](v Value) (T, error) {
	var out T
	m, ok := v.(Map)
	if !ok {
		return out, typeErr("record", v)
	}
	raw, err := Marshal(m)
	if err != nil {
		return out, fmt.Errorf("encode record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("decode record: %w", err)
	}
	return out, nil
}

// TypeName names a value's semantic type for error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case nil:
		return "none"
	case Str:
		return "string"
	case Int:
		return "integer"
	case Dec:
		return "decimal"
	case Bool:
		return "boolean"
	case Tuple:
		return "tuple"
	case Map:
		return "map"
	case OMap:
		return "ordered map"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func typeErr(want string, got Value) error {
	return fmt.Errorf("expected %s content, got %s", want, TypeName(got))
}
