package parallel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ygrebnov/parallel/pool"
)

// ForEach invokes body once for every element of source.
//
// Semantics:
//   - An Indexed source (e.g. Slice) is delegated to For over its index range.
//   - When parallelization is disabled, the worker count is below 2, ctx comes from
//     one of d's workers, or d is closed, elements are consumed in iteration order on
//     the calling goroutine.
//   - Otherwise the source is iterated on the calling goroutine only, into chunks of
//     InitialChunkSize elements growing by ChunkGrowthFactor up to MaxChunkSize. Each chunk
//     is submitted as soon as it is full and replays its elements in source order.
//   - Faults are returned after every chunk finished, as one *AggregateError in chunk order.
//
// body receives the same context a Body does: nested calls made from it must
// pass that context along, or they can deadlock a fully busy pool.
//
// It returns ErrNilArgument if d, source or body is nil.
func ForEach[T any](
	ctx context.Context, d *Dispatcher, source Sequence[T], body func(context.Context, T) error,
) error {
	switch {
	case d == nil:
		return nilArgument("dispatcher")
	case source == nil:
		return nilArgument("source")
	case body == nil:
		return nilArgument("body")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if indexed, ok := source.(Indexed[T]); ok {
		return d.For(ctx, 0, indexed.Len(), func(ctx context.Context, i int) error {
			return body(ctx, indexed.At(i))
		})
	}

	s := d.settings.Snapshot()
	if reason, serial := d.serialReason(ctx, s); serial {
		return d.runInline(ctx, opForEach, reason, func(ctx context.Context) error {
			for v := range source.All() {
				if err := body(ctx, v); err != nil {
					return err
				}
			}
			return nil
		})
	}

	b := d.newBatch(ctx, opForEach,
		attribute.Int("parallel.workers", s.WorkerCount),
		attribute.Int("parallel.initial_chunk_size", s.InitialChunkSize),
		attribute.Int("parallel.max_chunk_size", s.MaxChunkSize),
	)
	fillChunks(source.All(), newChunkSizer(s), func(chunk []T) {
		d.submit(b.add(chunkAction(body, chunk)))
	})
	return b.wait()
}

// chunkAction replays chunk through body in buffered order, stopping at the first fault.
func chunkAction[T any](body func(context.Context, T) error, chunk []T) pool.Action {
	return func(ctx context.Context) error {
		for _, v := range chunk {
			if err := body(ctx, v); err != nil {
				return err
			}
		}
		return nil
	}
}
