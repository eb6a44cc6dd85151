package store

import (
	"context"

	"github.com/roach88/stately/internal/entity"
)

// Store is the backing store contract the lifecycle manager calls into.
// Per-key read/write/delete; no cross-key atomicity is required or assumed.
// Only entity kinds that opt into storage-backed reactivation ever reach
// the store.
type Store interface {
	// Get returns the stored blob for id and whether one exists.
	Get(ctx context.Context, id entity.ID) ([]byte, bool, error)

	// Put writes the blob for id, replacing any previous value.
	Put(ctx context.Context, id entity.ID, blob []byte) error

	// Delete removes the blob for id. Deleting an absent key is not an error.
	Delete(ctx context.Context, id entity.ID) error
}

// Record is one journal row: a single operation applied to an entity, with
// its outcome. Content and Result are canonical JSON text ("" when absent).
type Record struct {
	Seq     int64
	Token   string
	Entity  entity.ID
	Op      string
	Content string
	Outcome entity.Outcome
	Result  string
	Error   string
}

// Query filters journal reads. Zero value selects everything in seq order.
type Query struct {
	Entity *entity.ID // only this entity's operations
	Token  string     // only operations with this correlation token
	Limit  int        // 0 means no limit
}

// Journal records applied operations for tracing and post-hoc inspection.
// Appends are in commit order; Records returns rows ordered by Seq.
type Journal interface {
	Append(ctx context.Context, rec Record) error
	Records(ctx context.Context, q Query) ([]Record, error)
}

// RecordedStore is a store that can apply a state mutation and its journal
// row as one atomic unit. The lifecycle manager prefers this path when the
// store offers it, so a crash never journals an operation whose state write
// was lost (or vice versa).
type RecordedStore interface {
	Store
	Journal
	PutRecorded(ctx context.Context, id entity.ID, blob []byte, rec Record) error
	DeleteRecorded(ctx context.Context, id entity.ID, rec Record) error
}
