package entity

import (
	"fmt"
	"time"

	"github.com/roach88/stately/internal/codec"
)

// ID uniquely identifies an entity: a kind (the registered type name) and a
// key within that kind. Immutable once assigned; it names both the entity's
// state cell and its operation queue.
type ID struct {
	Kind string
	Key  string
}

// String renders the identity as "kind/key".
func (id ID) String() string {
	return id.Kind + "/" + id.Key
}

// ParseID splits a "kind/key" string into an ID.
func ParseID(s string) (ID, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			if i == 0 || i == len(s)-1 {
				break
			}
			return ID{Kind: s[:i], Key: s[i+1:]}, nil
		}
	}
	return ID{}, fmt.Errorf("invalid entity id %q: want kind/key", s)
}

// StateCell is the single mutable slot holding one entity's durable value.
//
// INVARIANTS:
//   - Exists == false implies Value is meaningless; a handler observing
//     Exists == false at operation start sees a newly constructed entity.
//   - PendingDestruct is transient: cleared at the start of every operation;
//     if still true when the operation ends, the state is erased and the
//     cell may be evicted from memory.
type StateCell struct {
	Exists          bool
	Value           codec.Value
	PendingDestruct bool
}

// Envelope describes one inbound operation request. Immutable after
// dispatch: created by the request router, consumed exactly once by a
// handler.
type Envelope struct {
	ID      ID
	Op      string
	Content codec.Value
	Time    time.Time
	Token   string // correlation token, UUIDv7 when router-generated
}

// Outcome classifies how an applied operation ended, for the journal.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeError    Outcome = "error"
	OutcomeDestruct Outcome = "destruct"
)
