// Package registry is the dispatch table: it maps (kind, operation name)
// to a handler paired with the decode function for the content type that
// handler declares.
//
// Two dispatch styles are supported. Flat kinds register a name-to-function
// table directly (Registry.Kind + Op). Structured kinds register a Binder
// that constructs a capability set - an object whose named methods are the
// operations - once per activation; the runtime caches the set while the
// entity is resident and re-derives it from persisted state on every
// reactivation. Neither style uses reflection: everything is an explicit
// registration table built at startup.
//
// An unknown operation name is an UNSUPPORTED_OPERATION failure and a
// payload that does not decode is a CONTENT_DECODING failure; both fail the
// one operation and leave entity state unchanged.
package registry
