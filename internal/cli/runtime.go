package cli

import (
	"context"
	"fmt"

	"github.com/roach88/stately/internal/activity"
	"github.com/roach88/stately/internal/kinds"
	"github.com/roach88/stately/internal/lifecycle"
	"github.com/roach88/stately/internal/registry"
	"github.com/roach88/stately/internal/scheduler"
	"github.com/roach88/stately/internal/store"
)

// runtime bundles the pieces a one-shot CLI command needs: the SQLite
// store and a scheduler with the built-in kinds registered.
type runtime struct {
	store *store.SQLite
	sched *scheduler.Scheduler
}

// openRuntime opens the database and builds a scheduler over it. Sequence
// numbering resumes above the existing journal so new rows never collide
// with committed ones.
func openRuntime(ctx context.Context, opts *RootOptions) (*runtime, error) {
	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("open database %s", opts.DB), err)
	}

	reg := registry.New()
	kinds.RegisterAll(reg)

	inv := activity.NewLocal()
	if err := kinds.RegisterActivities(inv); err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "register activities", err)
	}

	recs, err := st.Records(ctx, store.Query{})
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "read journal", err)
	}
	var maxSeq int64
	for _, rec := range recs {
		if rec.Seq > maxSeq {
			maxSeq = rec.Seq
		}
	}

	life := lifecycle.NewManager(lifecycle.WithStore(st), lifecycle.WithJournal(st))
	sched := scheduler.New(reg, life,
		scheduler.WithInvoker(inv),
		scheduler.WithClock(scheduler.NewClockAt(maxSeq)),
	)

	return &runtime{store: st, sched: sched}, nil
}

// Close drains the scheduler and closes the database.
func (r *runtime) Close() error {
	r.sched.Close()
	return r.store.Close()
}
