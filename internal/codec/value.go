package codec

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Value is a sealed interface over the semantic types operation content and
// entity state may carry. Only Str, Int, Dec, Bool, Tuple, Map, and OMap
// implement it. Floats are forbidden; exact decimals use Dec.
type Value interface {
	value() // Sealed - only these types implement it
}

// Str is a string value.
type Str string

func (Str) value() {}

// Int is an integer value. Always int64, never float64.
type Int int64

func (Int) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// Dec is an exact decimal value backed by apd. Use NewDec or MustDec to
// construct one; the zero Dec is 0.
type Dec struct {
	d apd.Decimal
}

func (Dec) value() {}

// NewDec parses a decimal from its string form.
func NewDec(s string) (Dec, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Dec{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return Dec{d: *d}, nil
}

// MustDec parses a decimal or panics. For literals in tests and fixtures.
func MustDec(s string) Dec {
	d, err := NewDec(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the decimal in its exact text form.
func (d Dec) String() string {
	return d.d.String()
}

// Cmp compares two decimals numerically (-1, 0, +1).
func (d Dec) Cmp(other Dec) int {
	return d.d.Cmp(&other.d)
}

// Add returns d + other computed with exact decimal arithmetic.
func (d Dec) Add(other Dec) (Dec, error) {
	var out apd.Decimal
	_, err := apd.BaseContext.Add(&out, &d.d, &other.d)
	if err != nil {
		return Dec{}, fmt.Errorf("decimal add: %w", err)
	}
	return Dec{d: out}, nil
}

// Tuple is an ordered, fixed-position sequence of values.
type Tuple []Value

func (Tuple) value() {}

// Map is an unordered string-keyed mapping. Keys beginning with "$" are
// reserved for the codec's tagged encodings and are rejected on decode.
type Map map[string]Value

func (Map) value() {}

// Pair is one key/value entry of an OMap.
type Pair struct {
	Key string
	Val Value
}

// OMap is an insertion-ordered string-keyed mapping. Unlike Map, iteration
// and serialization preserve the order entries were added in.
type OMap []Pair

func (OMap) value() {}

// Get returns the value for key and whether it is present.
func (m OMap) Get(key string) (Value, bool) {
	for _, p := range m {
		if p.Key == key {
			return p.Val, true
		}
	}
	return nil, false
}

// Set replaces the value for an existing key in place, or appends a new
// entry, and returns the updated map.
func (m OMap) Set(key string, val Value) OMap {
	for i, p := range m {
		if p.Key == key {
			m[i].Val = val
			return m
		}
	}
	return append(m, Pair{Key: key, Val: val})
}

// Delete removes key and reports whether it was present.
func (m OMap) Delete(key string) (OMap, bool) {
	for i, p := range m {
		if p.Key == key {
			return append(m[:i], m[i+1:]...), true
		}
	}
	return m, false
}

// Keys returns the keys in insertion order.
func (m OMap) Keys() []string {
	keys := make([]string, len(m))
	for i, p := range m {
		keys[i] = p.Key
	}
	return keys
}

// Equal reports observational equality of two values. Decimals compare
// numerically (1.50 equals 1.5); Map compares ignoring order; OMap compares
// including order.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Dec:
		bv, ok := b.(Dec)
		return ok && av.Cmp(bv) == 0
	case Tuple:
		bv, ok := b.(Tuple)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv, ok := b.(Map)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, present := bv[k]
			if !present || !Equal(v, other) {
				return false
			}
		}
		return true
	case OMap:
		bv, ok := b.(OMap)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i].Key != bv[i].Key || !Equal(av[i].Val, bv[i].Val) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// validKey rejects reserved map keys. "$"-prefixed keys would collide with
// the codec's tagged encodings ($dec, $omap).
func validKey(k string) error {
	if strings.HasPrefix(k, "$") {
		return fmt.Errorf("map key %q: keys beginning with '$' are reserved", k)
	}
	return nil
}
