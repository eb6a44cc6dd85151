// Package lifecycle governs an entity's activation epochs: construction on
// first touch, reload from the backing store on reactivation, checkpointing
// after each operation, and erasure on destruction.
//
// The Phase state machine (Absent, Loading, Active, Deactivating) names the
// legal transitions; the Manager performs the two storage-facing steps,
// Materialize and Commit. "Durable" is decoupled from "resident": the
// scheduler may evict a drained storage-backed entity at any time, because
// the next Materialize reconstructs the cell from the store.
package lifecycle
