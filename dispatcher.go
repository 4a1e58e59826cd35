package parallel

import (
	"context"
	"errors"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ygrebnov/parallel/metrics"
	"github.com/ygrebnov/parallel/pool"
)

// TracerName is the instrumentation name of the dispatcher's tracer.
const TracerName = "github.com/ygrebnov/parallel"

// Instrument names recorded by the Dispatcher.
const (
	MetricDispatches     = "parallel_dispatch_total"
	MetricInline         = "parallel_inline_total"
	MetricUnitsSubmitted = "parallel_units_submitted_total"
	MetricFaults         = "parallel_faults_total"
)

const (
	opFor     = "For"
	opForEach = "ForEach"
	opRun     = "Run"

	reasonFastPath     = "fast-path"
	reasonDisabled     = "disabled"
	reasonSingleWorker = "single-worker"
	reasonNested       = "nested"
	reasonClosed       = "closed"
)

// Dispatcher executes parallel loops and fork-join actions on a fixed pool it
// owns. Methods are safe for concurrent use. Close releases the pool.
type Dispatcher struct {
	// noCopy prevents accidental copying of the dispatcher.
	//go:nocopy
	nc noCopy

	settings SettingsSource
	pool     pool.Pool
	closed   atomic.Bool
	logger   *zap.Logger
	tracer   trace.Tracer

	dispatches metrics.Counter
	inline     metrics.Counter
	submitted  metrics.Counter
	faults     metrics.Counter
}

// noCopy is a vet-recognized marker to discourage copying types with this field embedded.
// It works with the "-copylocks" analyzer via the presence of Lock/Unlock methods.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// New creates a Dispatcher using functional options and starts its pool,
// sized by the WorkerCount of the settings snapshot taken here.
func New(opts ...Option) (*Dispatcher, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	workers := cfg.Settings.Snapshot().WorkerCount
	d := &Dispatcher{
		settings:   cfg.Settings,
		logger:     cfg.Logger,
		tracer:     cfg.TracerProvider.Tracer(TracerName),
		dispatches: cfg.Metrics.Counter(MetricDispatches, metrics.WithUnit("1")),
		inline:     cfg.Metrics.Counter(MetricInline, metrics.WithUnit("1")),
		submitted:  cfg.Metrics.Counter(MetricUnitsSubmitted, metrics.WithUnit("1")),
		faults:     cfg.Metrics.Counter(MetricFaults, metrics.WithUnit("1")),
	}
	d.pool = pool.NewFixed(
		uint(workers),
		pool.WithLogger(cfg.Logger.Named("pool")),
		pool.WithMetrics(cfg.Metrics),
	)

	d.logger.Debug("dispatcher started", zap.Int("workers", workers))
	return d, nil
}

// Close stops the pool once queued work is drained. Calls made after Close
// take the serial path on the calling goroutine. Close must not be called
// from a body.
func (d *Dispatcher) Close() {
	d.closed.Store(true)
	d.pool.Close()
}

// Workers returns the size of the pool.
func (d *Dispatcher) Workers() int { return d.pool.Size() }

// serialReason reports whether a call must run on the calling goroutine.
// The nested check keeps a body running on a worker from queueing work behind
// itself on a pool whose workers may all be waiting.
func (d *Dispatcher) serialReason(ctx context.Context, s Settings) (string, bool) {
	switch {
	case s.DisableParallelization:
		return reasonDisabled, true
	case s.WorkerCount <= 1:
		return reasonSingleWorker, true
	case d.pool.IsWorker(ctx):
		return reasonNested, true
	case d.closed.Load():
		return reasonClosed, true
	}
	return "", false
}

// runInline executes action as one unit on the calling goroutine.
func (d *Dispatcher) runInline(ctx context.Context, op, reason string, action pool.Action) error {
	d.inline.Add(1)
	d.logger.Debug("inline dispatch", zap.String("op", op), zap.String("reason", reason))

	u := pool.NewUnit(ctx, action)
	u.Execute()
	err := aggregate([]*pool.Unit{u})
	d.observeFaults(op, err)
	return err
}

// submit hands units to the pool. If the pool stopped accepting work after the
// call chose the parallel path, the units are executed in order on the
// calling goroutine.
func (d *Dispatcher) submit(units ...*pool.Unit) {
	if err := d.pool.Submit(units...); err != nil {
		d.logger.Debug("pool unavailable, running units inline",
			zap.Error(err), zap.Int("units", len(units)))
		for _, u := range units {
			u.Execute()
		}
	}
}

func (d *Dispatcher) observeFaults(op string, err error) {
	var agg *AggregateError
	if !errors.As(err, &agg) {
		return
	}
	d.faults.Add(int64(len(agg.errs)))
	d.logger.Warn("dispatch faulted",
		zap.String("op", op), zap.Int("faults", len(agg.errs)), zap.Error(err))
}

// batch is the set of units of one parallel dispatch call, kept in
// submission order.
type batch struct {
	d     *Dispatcher
	op    string
	ctx   context.Context
	span  trace.Span
	units []*pool.Unit
}

func (d *Dispatcher) newBatch(ctx context.Context, op string, attrs ...attribute.KeyValue) *batch {
	ctx, span := d.tracer.Start(ctx, Namespace+"."+op, trace.WithAttributes(attrs...))
	return &batch{d: d, op: op, ctx: ctx, span: span}
}

// add appends a unit for action. The unit sees the batch span in its context.
func (b *batch) add(action pool.Action) *pool.Unit {
	u := pool.NewUnit(b.ctx, action)
	b.units = append(b.units, u)
	return u
}

// wait blocks until every unit of the batch is terminal and aggregates faults
// in submission order.
func (b *batch) wait() error {
	b.d.pool.WaitAll(b.units...)

	n := len(b.units)
	err := aggregate(b.units)

	b.d.dispatches.Add(1)
	b.d.submitted.Add(int64(n))
	b.d.logger.Debug("parallel dispatch", zap.String("op", b.op), zap.Int("units", n))
	b.d.observeFaults(b.op, err)

	b.span.SetAttributes(attribute.Int("parallel.units", n))
	if err != nil {
		b.span.RecordError(err)
		b.span.SetStatus(codes.Error, "unit faulted")
	}
	b.span.End()
	return err
}
