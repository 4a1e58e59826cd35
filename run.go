package parallel

import (
	"context"
	"strconv"

	"github.com/ygrebnov/errorc"
	"go.opentelemetry.io/otel/attribute"
)

// Run executes independent actions and returns once all of them finished.
//
// Semantics:
//   - Zero or one action runs on the calling goroutine.
//   - When parallelization is disabled, the worker count is below 2, ctx comes from
//     one of this dispatcher's workers, or the dispatcher is closed, actions run in
//     slice order on the calling goroutine.
//   - Otherwise every action is one unit; a failing action never prevents the others from
//     running. Faults are returned as one *AggregateError in slice order.
//
// It returns ErrNilArgument if actions is nil and ErrInvalidArgument, tagged with the
// offending index, if any action is nil. Both are reported before anything runs.
func (d *Dispatcher) Run(ctx context.Context, actions []Action) error {
	if actions == nil {
		return nilArgument("actions")
	}
	for i, a := range actions {
		if a == nil {
			return errorc.With(ErrInvalidArgument, errorc.String("index", strconv.Itoa(i)))
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	switch len(actions) {
	case 0:
		return nil
	case 1:
		return d.runInline(ctx, opRun, reasonFastPath, actions[0])
	}

	s := d.settings.Snapshot()
	if reason, serial := d.serialReason(ctx, s); serial {
		return d.runInline(ctx, opRun, reason, func(ctx context.Context) error {
			for _, a := range actions {
				if err := a(ctx); err != nil {
					return err
				}
			}
			return nil
		})
	}

	b := d.newBatch(ctx, opRun,
		attribute.Int("parallel.actions", len(actions)),
		attribute.Int("parallel.workers", s.WorkerCount),
	)
	for _, a := range actions {
		b.add(a)
	}
	d.submit(b.units...)
	return b.wait()
}

// Do is Run for plain thunks.
func (d *Dispatcher) Do(ctx context.Context, thunks ...func()) error {
	actions := make([]Action, len(thunks))
	for i, t := range thunks {
		actions[i] = ActionFunc(t)
	}
	return d.Run(ctx, actions)
}
