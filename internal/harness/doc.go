// Package harness runs YAML-defined scenarios against the real runtime:
// the scheduler, the built-in kinds, the activity invoker, and an
// in-memory recorded store. Steps submit operations in order; the trace is
// read back from the journal, never manufactured, so assertions and golden
// snapshots check what the runtime actually did.
//
// Determinism comes from testutil: a frozen wall clock and sequential
// correlation tokens make repeated runs byte-identical, which is what the
// goldie golden-file comparison needs.
package harness
