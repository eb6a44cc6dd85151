package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/stately/internal/activity"
	"github.com/roach88/stately/internal/codec"
	"github.com/roach88/stately/internal/entity"
	"github.com/roach88/stately/internal/kinds"
	"github.com/roach88/stately/internal/lifecycle"
	"github.com/roach88/stately/internal/registry"
	"github.com/roach88/stately/internal/scheduler"
	"github.com/roach88/stately/internal/store"
	"github.com/roach88/stately/internal/testutil"
)

// scenarioEpoch is the frozen wall-clock start for every run. Fixed so
// golden traces never depend on the machine clock.
var scenarioEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Run executes a scenario against a fresh in-memory runtime.
func Run(sc *Scenario) (*Result, error) {
	return RunWith(sc, store.NewMem())
}

// RunWith executes a scenario against the given recorded store. The CLI
// uses this to run scenarios over a SQLite file.
func RunWith(sc *Scenario, rs store.RecordedStore) (*Result, error) {
	reg := registry.New()
	kinds.RegisterAll(reg)

	inv := activity.NewLocal()
	if err := kinds.RegisterActivities(inv); err != nil {
		return nil, fmt.Errorf("register activities: %w", err)
	}

	life := lifecycle.NewManager(lifecycle.WithStore(rs), lifecycle.WithJournal(rs))
	clock := testutil.NewFrozenClock(scenarioEpoch, time.Second)
	sched := scheduler.New(reg, life,
		scheduler.WithInvoker(inv),
		scheduler.WithTokens(testutil.NewSequentialTokens(sc.TokenPrefix)),
		scheduler.WithNow(clock.Now),
	)
	defer sched.Close()

	ctx := context.Background()
	result := NewResult()

	if err := executeSteps(ctx, sched, sc, result); err != nil {
		return nil, err
	}

	// The trace is the journal the runtime actually wrote.
	recs, err := rs.Records(ctx, store.Query{})
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	for _, rec := range recs {
		result.Trace = append(result.Trace, TraceEvent{
			Seq:     rec.Seq,
			Token:   rec.Token,
			Entity:  rec.Entity.String(),
			Op:      rec.Op,
			Content: rec.Content,
			Outcome: string(rec.Outcome),
			Result:  rec.Result,
			Error:   rec.Error,
		})
	}

	evaluateAssertions(ctx, sc.Assertions, rs, result)
	return result, nil
}

// inflight is one submitted step awaiting its result.
type inflight struct {
	index int
	step  Step
	fut   *scheduler.Future
}

// executeSteps submits steps in order. A step marked concurrent is grouped
// with its predecessor; the group is awaited together before the next
// sequential step runs.
func executeSteps(ctx context.Context, sched *scheduler.Scheduler, sc *Scenario, result *Result) error {
	var window []inflight

	flush := func() error {
		for _, f := range window {
			out, err := f.fut.Wait(ctx)
			checkExpect(f.index, f.step, out, err, result)
		}
		window = window[:0]
		return nil
	}

	for i, step := range sc.Steps {
		id, err := entity.ParseID(step.Entity)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		content, err := yamlToValue(step.Content)
		if err != nil {
			return fmt.Errorf("steps[%d]: content: %w", i, err)
		}

		next := i + 1
		fut := sched.Submit(ctx, entity.Envelope{ID: id, Op: step.Op, Content: content})
		window = append(window, inflight{index: i, step: step, fut: fut})

		if next >= len(sc.Steps) || !sc.Steps[next].Concurrent {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkExpect validates one step result against its expectation.
func checkExpect(i int, step Step, out codec.Value, err error, result *Result) {
	expect := step.Expect
	wantOutcome := "ok"
	if expect != nil && expect.Outcome != "" {
		wantOutcome = expect.Outcome
	}

	if wantOutcome == "ok" {
		if err != nil {
			result.AddError("steps[%d] %s %s: expected success, got %v", i, step.Entity, step.Op, err)
			return
		}
		if expect != nil && expect.Result != nil {
			want, convErr := yamlToValue(expect.Result)
			if convErr != nil {
				result.AddError("steps[%d]: expected result: %v", i, convErr)
				return
			}
			if !codec.Equal(want, out) {
				result.AddError("steps[%d] %s %s: result mismatch: want %v, got %v", i, step.Entity, step.Op, want, out)
			}
		}
		return
	}

	if err == nil {
		result.AddError("steps[%d] %s %s: expected failure, got success", i, step.Entity, step.Op)
		return
	}
	if expect.ErrorCode != "" {
		if got := string(entity.CodeOf(err)); got != expect.ErrorCode {
			result.AddError("steps[%d] %s %s: error code mismatch: want %s, got %s (%v)",
				i, step.Entity, step.Op, expect.ErrorCode, got, err)
		}
	}
}

// yamlToValue converts a YAML-decoded value to a runtime value. nil maps
// to no content; floats and null elements are rejected the same way the
// codec rejects them on the wire.
func yamlToValue(v any) (codec.Value, error) {
	if v == nil {
		return nil, nil
	}
	return codec.FromGo(v)
}
