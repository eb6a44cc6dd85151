// Package scheduler is the execution core: per-entity FIFO queues drained
// by a bounded worker pool, with at most one operation in flight per entity
// identity at any time. Exclusivity spans awaited activity calls, so a
// handler never observes state mutated by a sibling operation.
//
// Every submitted operation gets a sequence number from a shared logical
// clock and a UUIDv7 correlation token; both land in the journal. Results
// are delivered through futures, resolved only after the operation's
// effects committed.
package scheduler
