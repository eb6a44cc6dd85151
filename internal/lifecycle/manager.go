package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/stately/internal/codec"
	"github.com/roach88/stately/internal/entity"
	"github.com/roach88/stately/internal/store"
)

// Manager is the sole authority on when entity state moves between memory
// and the backing store. Materialize loads (or initializes) a state cell at
// activation; Commit persists, retains, or erases it after each operation.
//
// Delivery stance: Commit happens-before the operation's result is
// delivered to the caller. A success the caller observes is durable
// (at-most-once observation); there is no redelivery path that could apply
// an operation twice.
type Manager struct {
	store   store.Store
	journal store.Journal
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore attaches a backing store. Without one, storage-backed kinds
// behave like in-memory kinds (materialize always yields an empty cell).
func WithStore(s store.Store) Option {
	return func(m *Manager) {
		m.store = s
	}
}

// WithJournal attaches an operation journal. When the store also implements
// store.RecordedStore, state mutation and journal row commit atomically.
func WithJournal(j store.Journal) Option {
	return func(m *Manager) {
		m.journal = j
	}
}

// NewManager creates a Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Journal returns the attached journal, or nil.
func (m *Manager) Journal() store.Journal {
	return m.journal
}

// Materialize produces the state cell for an entity activation. For
// storage-backed kinds it reads the backing store; otherwise (or when the
// key is absent) it returns an empty cell with Exists == false, which is
// what makes the first operation observe a newly constructed entity.
//
// A store read failure is STORE_UNAVAILABLE: the activation does not
// proceed and no cell is cached.
func (m *Manager) Materialize(ctx context.Context, id entity.ID, storageBacked bool) (*entity.StateCell, error) {
	if !storageBacked || m.store == nil {
		return &entity.StateCell{}, nil
	}

	blob, ok, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, entity.NewStoreUnavailable(id, "", fmt.Errorf("materialize: %w", err))
	}
	if !ok {
		return &entity.StateCell{}, nil
	}

	value, err := codec.Unmarshal(blob)
	if err != nil {
		return nil, entity.NewStoreUnavailable(id, "", fmt.Errorf("materialize: decode stored state: %w", err))
	}

	slog.Debug("entity state loaded", "entity", id, "bytes", len(blob))
	return &entity.StateCell{Exists: true, Value: value}, nil
}

// Commit inspects the post-operation cell and makes the outcome durable:
// erase when destruction is pending, persist otherwise. The journal row rec
// commits with the state change (atomically when the store supports it).
// Returns whether the entity was destructed.
//
// On a store failure the caller must restore the cell to its last
// committed value - Commit itself never delivers a half-applied state.
func (m *Manager) Commit(ctx context.Context, id entity.ID, storageBacked bool, cell *entity.StateCell, rec store.Record) (destructed bool, err error) {
	if cell.PendingDestruct {
		if err := m.erase(ctx, id, storageBacked, rec); err != nil {
			return false, err
		}
		cell.Exists = false
		cell.Value = nil
		cell.PendingDestruct = false
		slog.Debug("entity destructed", "entity", id, "op", rec.Op, "seq", rec.Seq)
		return true, nil
	}

	if err := m.persist(ctx, id, storageBacked, cell, rec); err != nil {
		return false, err
	}
	return false, nil
}

func (m *Manager) erase(ctx context.Context, id entity.ID, storageBacked bool, rec store.Record) error {
	rec.Outcome = entity.OutcomeDestruct

	if storageBacked && m.store != nil {
		if rs, ok := m.store.(store.RecordedStore); ok && m.journal != nil {
			if err := rs.DeleteRecorded(ctx, id, rec); err != nil {
				return entity.NewStoreUnavailable(id, rec.Op, err)
			}
			return nil
		}
		if err := m.store.Delete(ctx, id); err != nil {
			return entity.NewStoreUnavailable(id, rec.Op, err)
		}
	}
	return m.appendJournal(ctx, id, rec)
}

func (m *Manager) persist(ctx context.Context, id entity.ID, storageBacked bool, cell *entity.StateCell, rec store.Record) error {
	if storageBacked && m.store != nil && cell.Exists {
		blob, err := codec.MarshalCanonical(cell.Value)
		if err != nil {
			return entity.NewStoreUnavailable(id, rec.Op, fmt.Errorf("encode state: %w", err))
		}
		if rs, ok := m.store.(store.RecordedStore); ok && m.journal != nil {
			if err := rs.PutRecorded(ctx, id, blob, rec); err != nil {
				return entity.NewStoreUnavailable(id, rec.Op, err)
			}
			return nil
		}
		if err := m.store.Put(ctx, id, blob); err != nil {
			return entity.NewStoreUnavailable(id, rec.Op, err)
		}
	}
	return m.appendJournal(ctx, id, rec)
}

func (m *Manager) appendJournal(ctx context.Context, id entity.ID, rec store.Record) error {
	if m.journal == nil {
		return nil
	}
	if err := m.journal.Append(ctx, rec); err != nil {
		return entity.NewStoreUnavailable(id, rec.Op, fmt.Errorf("journal: %w", err))
	}
	return nil
}
