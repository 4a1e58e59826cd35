package pool

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
	"go.uber.org/zap"

	"github.com/ygrebnov/parallel/metrics"
)

// Instrument names recorded by Fixed.
const (
	MetricQueueDepth    = "pool_queue_depth"
	MetricUnitsExecuted = "pool_units_executed_total"
	MetricUnitsFaulted  = "pool_units_faulted_total"
	MetricUnitExecTime  = "pool_unit_exec_seconds"
)

// Option configures a Fixed pool.
type Option func(*Fixed)

// WithLogger sets the logger used for worker lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(p *Fixed) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics sets the metrics provider for queue and execution instruments.
func WithMetrics(mp metrics.Provider) Option {
	return func(p *Fixed) {
		if mp != nil {
			p.metrics = mp
		}
	}
}

// workerKey is the context key under which a worker stores its pool.
type workerKey struct{}

// Fixed is a pool of a fixed number of long-lived workers draining one shared
// FIFO queue. Workers are started by NewFixed and run until Close.
type Fixed struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  deque.Deque[*Unit]
	closed bool

	size      int
	workersWG sync.WaitGroup
	closeOnce sync.Once

	logger  *zap.Logger
	metrics metrics.Provider

	queueDepth metrics.UpDownCounter
	executed   metrics.Counter
	faulted    metrics.Counter
	execTime   metrics.Histogram
}

var _ Pool = (*Fixed)(nil)

// NewFixed starts a pool of size workers. A zero size is treated as one.
func NewFixed(size uint, opts ...Option) *Fixed {
	if size == 0 {
		size = 1
	}

	p := &Fixed{
		size:    int(size),
		logger:  zap.NewNop(),
		metrics: metrics.NewNoopProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	p.cond = sync.NewCond(&p.mu)

	p.queueDepth = p.metrics.UpDownCounter(MetricQueueDepth, metrics.WithUnit("1"),
		metrics.WithDescription("units waiting in the pool queue"))
	p.executed = p.metrics.Counter(MetricUnitsExecuted, metrics.WithUnit("1"))
	p.faulted = p.metrics.Counter(MetricUnitsFaulted, metrics.WithUnit("1"))
	p.execTime = p.metrics.Histogram(MetricUnitExecTime, metrics.WithUnit("seconds"))

	p.workersWG.Add(p.size)
	for i := range p.size {
		go p.work(i)
	}

	return p
}

// Submit enqueues units in order and wakes idle workers.
// Units must be non-nil and pending.
func (p *Fixed) Submit(units ...*Unit) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	for _, u := range units {
		p.queue.PushBack(u)
	}
	p.queueDepth.Add(int64(len(units)))
	p.mu.Unlock()

	switch len(units) {
	case 0:
	case 1:
		p.cond.Signal()
	default:
		p.cond.Broadcast()
	}
	return nil
}

// WaitAll blocks until every unit is terminal.
func (p *Fixed) WaitAll(units ...*Unit) {
	for _, u := range units {
		<-u.done
	}
}

// IsWorker reports whether ctx derives from a context handed to a unit action
// by one of this pool's workers.
func (p *Fixed) IsWorker(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	owner, _ := ctx.Value(workerKey{}).(*Fixed)
	return owner == p
}

// Size returns the number of workers.
func (p *Fixed) Size() int { return p.size }

// Close stops accepting units, lets the workers drain the queue and waits for
// them to exit. Close is idempotent. It must not be called from a unit action.
func (p *Fixed) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		p.cond.Broadcast()

		p.workersWG.Wait()
		p.logger.Debug("pool closed", zap.Int("workers", p.size))
	})
}
