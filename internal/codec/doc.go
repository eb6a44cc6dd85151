// Package codec defines the semantic value types carried by operation
// content and entity state, and their lossless JSON wire encoding.
//
// The Value interface is sealed: Str, Int, Dec, Bool, Tuple, Map, and OMap
// are the only implementations. Floats are forbidden everywhere - exact
// decimal arithmetic uses Dec (apd-backed), and a float in inbound JSON is
// a decode error, never a silent coercion.
//
// Two serializations exist:
//
//   - Marshal/Unmarshal: the wire form. Native JSON where possible, tagged
//     objects ({"$dec": ...}, {"$omap": ...}) for the two types JSON cannot
//     represent. Map keys are emitted sorted so output is deterministic.
//   - MarshalCanonical: the durable form used by the store and journal.
//     Adds NFC normalization of strings and keys per RFC 8785 conventions.
//
// Both round-trip every supported type: Unmarshal(Marshal(v)) is Equal to v.
package codec
