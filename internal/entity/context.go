package entity

import (
	"context"
	"errors"
	"time"

	"github.com/roach88/stately/internal/codec"
)

// Invoker performs awaited external activity calls on behalf of a handler.
// Implemented by the activity package; the scheduler threads it into every
// operation context.
type Invoker interface {
	Invoke(ctx context.Context, activity string, input codec.Value) (codec.Value, error)
}

// OpContext is the capability set a handler receives for one operation. It
// owns the entity's state cell for the duration of the operation - the
// scheduler guarantees no other operation touches the cell concurrently,
// including across Invoke await points.
type OpContext struct {
	id      ID
	op      string
	now     time.Time
	seq     int64
	cell    *StateCell
	fresh   bool // Exists was false at operation start
	invoker Invoker
}

// NewOpContext builds the context for a single operation. The caller (the
// scheduler) must hold the entity's exclusivity for the whole operation.
func NewOpContext(id ID, op string, now time.Time, seq int64, cell *StateCell, invoker Invoker) *OpContext {
	// PendingDestruct is transient: cleared at the start of every operation.
	cell.PendingDestruct = false
	return &OpContext{
		id:      id,
		op:      op,
		now:     now,
		seq:     seq,
		cell:    cell,
		fresh:   !cell.Exists,
		invoker: invoker,
	}
}

// Self returns the entity's own identity.
func (c *OpContext) Self() ID {
	return c.id
}

// Op returns the name of the operation being applied.
func (c *OpContext) Op() string {
	return c.op
}

// Now returns the logical time stamped on the operation envelope.
func (c *OpContext) Now() time.Time {
	return c.now
}

// Seq returns the operation's sequence number on this entity's queue.
func (c *OpContext) Seq() int64 {
	return c.seq
}

// IsNewlyConstructed reports whether the entity had no existing state at
// the start of the current operation. True exactly once per activation
// epoch: on the first operation after construction or after a destruct.
func (c *OpContext) IsNewlyConstructed() bool {
	return c.fresh
}

// Exists reports whether the entity currently has state.
func (c *OpContext) Exists() bool {
	return c.cell.Exists
}

// State returns the entity's current value. Meaningless when !Exists().
func (c *OpContext) State() codec.Value {
	return c.cell.Value
}

// Set replaces the entity's state wholesale and marks it existing.
// Cancels a destruction requested earlier in the same operation.
func (c *OpContext) Set(v codec.Value) {
	c.cell.Value = v
	c.cell.Exists = true
	c.cell.PendingDestruct = false
}

// Destruct requests erasure of the entity's state at the end of the
// current operation. A later Set in the same operation cancels it.
func (c *OpContext) Destruct() {
	c.cell.PendingDestruct = true
}

// Invoke performs an awaited external activity call. The entity's queue
// does not advance while the call is in flight - exclusivity spans the
// await. A failure or timeout is the failure of this one call, surfaced as
// an EXTERNAL_CALL error; it never cancels the entity.
func (c *OpContext) Invoke(ctx context.Context, activity string, input codec.Value) (codec.Value, error) {
	if c.invoker == nil {
		return nil, NewExternalCall(c.id, c.op, activity, errNoInvoker)
	}
	out, err := c.invoker.Invoke(ctx, activity, input)
	if err != nil {
		return nil, NewExternalCall(c.id, c.op, activity, err)
	}
	return out, nil
}

var errNoInvoker = errors.New("no activity invoker configured")

// Handler applies one decoded operation against the entity's state cell.
// Registered through the registry package, which pairs it with the decode
// function for the content type it expects.
type Handler func(ctx context.Context, op *OpContext, content codec.Value) (codec.Value, error)
