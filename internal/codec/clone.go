package codec

// Clone returns a deep copy of a value. Handlers mutate Tuple, Map, and
// OMap contents in place, so snapshots taken for rollback must not share
// structure with the live value.
func Clone(v Value) Value {
	switch val := v.(type) {
	case Tuple:
		out := make(Tuple, len(val))
		for i, elem := range val {
			out[i] = Clone(elem)
		}
		return out
	case Map:
		out := make(Map, len(val))
		for k, elem := range val {
			out[k] = Clone(elem)
		}
		return out
	case OMap:
		out := make(OMap, len(val))
		for i, p := range val {
			out[i] = Pair{Key: p.Key, Val: Clone(p.Val)}
		}
		return out
	default:
		// Str, Int, Bool, Dec, nil are value types
		return v
	}
}
