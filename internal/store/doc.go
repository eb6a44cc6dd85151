// Package store provides the backing store behind storage-backed entity
// kinds and the operation journal behind tracing.
//
// The Store contract is per-key get/put/delete with no cross-key atomicity.
// SQLite is the durable implementation (WAL mode, single-writer connection,
// embedded schema); Mem is the in-memory one used by tests and non-durable
// runs. Both also implement Journal and the combined RecordedStore, which
// applies a state mutation and its journal row in one atomic unit - the
// lifecycle manager uses that path so a committed operation and its trace
// row never diverge across a crash.
package store
