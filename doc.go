// Package parallel speeds up CPU-bound iterative work by running it on a fixed
// pool of long-lived worker goroutines.
//
// Primitives
//   - (*Dispatcher).For: parallel range iteration, partitioned into WorkerCount contiguous ranges.
//   - ForEach: parallel sequence iteration; Indexed sources are partitioned by index,
//     other sequences are buffered into adaptively growing chunks on the calling goroutine.
//   - (*Dispatcher).Run and Do: fork-join execution of independent actions.
//   - Map: For with per-index results kept in input order.
//
// Constructor
//   - New(opts ...Option): starts the pool. Close releases it.
//
// Defaults
// Unless overridden with WithSettings or WithWorkers:
//   - DisableParallelization: false
//   - WorkerCount: runtime.NumCPU()
//   - InitialChunkSize: 16
//   - ChunkGrowthFactor: 2
//   - MaxChunkSize: 1024
//
// Settings are read once at the start of every call, so a *LiveSettings source
// may switch parallelization off and on between calls. LoadSettings reads them
// from YAML or JSON.
//
// Serial execution
// A call runs on the calling goroutine when the range holds at most one index,
// when there are at most one action, when parallelization is disabled, when
// WorkerCount is below 2, after Close, or when its context was handed to a body
// by one of the dispatcher's workers. The last rule makes nested calls safe:
// pass the context your body received to any call you make from inside it.
//
// Faults
// An error returned by a body, or a panic raised by it, is captured by the unit
// running it and never crosses goroutines. Once all units finished, faults are
// returned as a single *AggregateError in submission order; each entry is a
// *BodyError carrying the unit index. Sibling units always run to completion.
//
// Observability
// WithLogger (zap), WithMetrics (metrics.Provider; see metrics/otelmetrics) and
// WithTracerProvider (OpenTelemetry) instrument dispatches and the pool.
package parallel
