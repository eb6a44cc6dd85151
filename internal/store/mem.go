package store

import (
	"context"
	"sync"

	"github.com/roach88/stately/internal/entity"
)

// Mem is an in-memory Store and Journal for tests and non-durable runs.
// Safe for concurrent use.
type Mem struct {
	mu      sync.Mutex
	state   map[entity.ID][]byte
	journal []Record
}

var _ RecordedStore = (*Mem)(nil)

// NewMem creates an empty in-memory store.
func NewMem() *Mem {
	return &Mem{state: make(map[entity.ID][]byte)}
}

// Get returns the stored blob for an entity identity.
func (m *Mem) Get(_ context.Context, id entity.ID) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.state[id]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, true, nil
}

// Put writes the blob for an entity identity.
func (m *Mem) Put(_ context.Context, id entity.ID, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(id, blob)
	return nil
}

func (m *Mem) put(id entity.ID, blob []byte) {
	cp := make([]byte, len(blob))
	copy(cp, blob)
	m.state[id] = cp
}

// Delete removes the blob for an entity identity.
func (m *Mem) Delete(_ context.Context, id entity.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, id)
	return nil
}

// Append records a journal row.
func (m *Mem) Append(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journal = append(m.journal, rec)
	return nil
}

// PutRecorded writes state and journal under one lock acquisition.
func (m *Mem) PutRecorded(_ context.Context, id entity.ID, blob []byte, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(id, blob)
	m.journal = append(m.journal, rec)
	return nil
}

// DeleteRecorded removes state and records the journal row under one lock
// acquisition.
func (m *Mem) DeleteRecorded(_ context.Context, id entity.ID, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, id)
	m.journal = append(m.journal, rec)
	return nil
}

// Records returns journal rows matching the query in append order.
func (m *Mem) Records(_ context.Context, q Query) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Record
	for _, rec := range m.journal {
		if q.Entity != nil && rec.Entity != *q.Entity {
			continue
		}
		if q.Token != "" && rec.Token != q.Token {
			continue
		}
		out = append(out, rec)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// Len returns the number of stored entities. For tests.
func (m *Mem) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state)
}
