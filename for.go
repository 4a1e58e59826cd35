package parallel

import (
	"context"
	"fmt"

	"github.com/ygrebnov/errorc"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ygrebnov/parallel/pool"
)

// For invokes body once for every index in [fromInclusive, toExclusive).
//
// Semantics:
//   - A range of at most one index runs on the calling goroutine without touching the pool.
//   - When parallelization is disabled, the worker count is below 2, ctx comes from
//     one of this dispatcher's workers (a nested call), or the dispatcher is closed,
//     indices run in ascending order on the calling goroutine.
//   - Otherwise the range is split into WorkerCount contiguous partitions, the last one
//     absorbing the remainder; each partition is one unit iterating in ascending order.
//   - A fault ends the remaining iterations of its own partition only. After every unit
//     finished, faults are returned as one *AggregateError in partition order.
//
// It returns ErrNilArgument if body is nil and ErrInvalidArgument if the range
// holds more indices than an int can count.
func (d *Dispatcher) For(ctx context.Context, fromInclusive, toExclusive int, body Body) error {
	if body == nil {
		return nilArgument("body")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if toExclusive <= fromInclusive {
		return nil
	}
	count := toExclusive - fromInclusive
	if count <= 0 {
		return errorc.With(ErrInvalidArgument, errorc.String("range",
			fmt.Sprintf("[%d, %d) holds more than math.MaxInt indices", fromInclusive, toExclusive)))
	}
	if count == 1 {
		return d.runInline(ctx, opFor, reasonFastPath, func(ctx context.Context) error {
			return body(ctx, fromInclusive)
		})
	}

	s := d.settings.Snapshot()
	if reason, serial := d.serialReason(ctx, s); serial {
		return d.runInline(ctx, opFor, reason, rangeAction(body, fromInclusive, toExclusive))
	}

	b := d.newBatch(ctx, opFor,
		attribute.Int("parallel.count", count),
		attribute.Int("parallel.workers", s.WorkerCount),
	)
	for _, sp := range partition(fromInclusive, toExclusive, s.WorkerCount) {
		b.add(rangeAction(body, sp.low, sp.high))
	}
	d.submit(b.units...)
	return b.wait()
}

// rangeAction iterates body over [low, high) in ascending order, stopping at the first fault.
func rangeAction(body Body, low, high int) pool.Action {
	return func(ctx context.Context) error {
		for i := low; i < high; i++ {
			if err := body(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}
}
