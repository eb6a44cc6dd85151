package harness

import (
	"context"

	"github.com/roach88/stately/internal/codec"
	"github.com/roach88/stately/internal/entity"
	"github.com/roach88/stately/internal/store"
)

// evaluateAssertions checks every assertion against the trace and the
// durable state, accumulating failures into result.
func evaluateAssertions(ctx context.Context, assertions []Assertion, rs store.RecordedStore, result *Result) {
	for i, a := range assertions {
		switch a.Type {
		case AssertJournalContains:
			assertJournalContains(i, a, result)
		case AssertJournalOrder:
			assertJournalOrder(i, a, result)
		case AssertJournalCount:
			assertJournalCount(i, a, result)
		case AssertFinalState:
			assertFinalState(ctx, i, a, rs, result)
		default:
			result.AddError("assertions[%d]: unknown type %q", i, a.Type)
		}
	}
}

// scoped filters the trace to the assertion's entity, or returns it whole.
func scoped(a Assertion, trace []TraceEvent) []TraceEvent {
	if a.Entity == "" {
		return trace
	}
	var out []TraceEvent
	for _, ev := range trace {
		if ev.Entity == a.Entity {
			out = append(out, ev)
		}
	}
	return out
}

func assertJournalContains(i int, a Assertion, result *Result) {
	for _, ev := range scoped(a, result.Trace) {
		if ev.Op != a.Op {
			continue
		}
		if a.Outcome != "" && ev.Outcome != a.Outcome {
			continue
		}
		return
	}
	result.AddError("assertions[%d]: journal_contains: no row with op %q outcome %q entity %q",
		i, a.Op, a.Outcome, a.Entity)
}

// assertJournalOrder checks the ops appear in the given relative order.
// Intervening rows are allowed.
func assertJournalOrder(i int, a Assertion, result *Result) {
	trace := scoped(a, result.Trace)
	next := 0
	for _, ev := range trace {
		if next < len(a.Ops) && ev.Op == a.Ops[next] {
			next++
		}
	}
	if next != len(a.Ops) {
		result.AddError("assertions[%d]: journal_order: op %q not found in order %v",
			i, a.Ops[next], a.Ops)
	}
}

func assertJournalCount(i int, a Assertion, result *Result) {
	trace := scoped(a, result.Trace)
	count := 0
	for _, ev := range trace {
		if a.Op == "" || ev.Op == a.Op {
			count++
		}
	}
	if count != a.Count {
		result.AddError("assertions[%d]: journal_count: want %d rows, got %d (entity %q op %q)",
			i, a.Count, count, a.Entity, a.Op)
	}
}

// assertFinalState reads durable state for a storage-backed entity and
// compares it for observable equality, or asserts absence.
func assertFinalState(ctx context.Context, i int, a Assertion, rs store.RecordedStore, result *Result) {
	id, err := entity.ParseID(a.Entity)
	if err != nil {
		result.AddError("assertions[%d]: final_state: %v", i, err)
		return
	}

	blob, ok, err := rs.Get(ctx, id)
	if err != nil {
		result.AddError("assertions[%d]: final_state: read %s: %v", i, a.Entity, err)
		return
	}

	if a.Absent {
		if ok {
			result.AddError("assertions[%d]: final_state: expected %s absent, found state", i, a.Entity)
		}
		return
	}

	if !ok {
		result.AddError("assertions[%d]: final_state: %s has no durable state", i, a.Entity)
		return
	}

	got, err := codec.Unmarshal(blob)
	if err != nil {
		result.AddError("assertions[%d]: final_state: decode %s: %v", i, a.Entity, err)
		return
	}
	want, err := yamlToValue(a.Value)
	if err != nil {
		result.AddError("assertions[%d]: final_state: expected value: %v", i, err)
		return
	}
	if !codec.Equal(want, got) {
		result.AddError("assertions[%d]: final_state: %s: want %v, got %v", i, a.Entity, want, got)
	}
}
