package metrics

import (
	"math"
	"sync"
	"sync/atomic"
)

// BasicProvider is an in-memory Provider.
// Instruments are created on first use and shared by name; values can be read
// back through the Basic* instrument types or the provider's lookup helpers.
type BasicProvider struct {
	counters   registry[*BasicCounter]
	updowns    registry[*BasicUpDownCounter]
	histograms registry[*BasicHistogram]
}

// NewBasicProvider constructs an empty BasicProvider.
func NewBasicProvider() *BasicProvider {
	return &BasicProvider{
		counters:   newRegistry(func() *BasicCounter { return &BasicCounter{} }),
		updowns:    newRegistry(func() *BasicUpDownCounter { return &BasicUpDownCounter{} }),
		histograms: newRegistry(func() *BasicHistogram { return &BasicHistogram{min: math.Inf(1), max: math.Inf(-1)} }),
	}
}

// Counter returns the counter registered under name.
func (p *BasicProvider) Counter(name string, opts ...InstrumentOption) Counter {
	return p.counters.get(name, opts)
}

// UpDownCounter returns the up/down counter registered under name.
func (p *BasicProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	return p.updowns.get(name, opts)
}

// Histogram returns the histogram registered under name.
func (p *BasicProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	return p.histograms.get(name, opts)
}

// CounterValue returns the value of counter name, or 0 if it was never created.
func (p *BasicProvider) CounterValue(name string) int64 {
	if c, ok := p.counters.lookup(name); ok {
		return c.Snapshot()
	}
	return 0
}

// UpDownValue returns the value of up/down counter name, or 0 if it was never created.
func (p *BasicProvider) UpDownValue(name string) int64 {
	if u, ok := p.updowns.lookup(name); ok {
		return u.Snapshot()
	}
	return 0
}

// HistogramSnapshot returns the state of histogram name.
func (p *BasicProvider) HistogramSnapshot(name string) (HistSnapshot, bool) {
	if h, ok := p.histograms.lookup(name); ok {
		return h.Snapshot(), true
	}
	return HistSnapshot{}, false
}

// Config returns the metadata an instrument was created with.
func (p *BasicProvider) Config(name string) (InstrumentConfig, bool) {
	for _, cfg := range []func(string) (InstrumentConfig, bool){
		p.counters.config, p.updowns.config, p.histograms.config,
	} {
		if c, ok := cfg(name); ok {
			return c, true
		}
	}
	return InstrumentConfig{}, false
}

// registry is a named set of instruments of one kind.
type registry[T any] struct {
	mu    *sync.RWMutex
	items map[string]T
	meta  map[string]InstrumentConfig
	newFn func() T
}

func newRegistry[T any](newFn func() T) registry[T] {
	return registry[T]{
		mu:    &sync.RWMutex{},
		items: make(map[string]T),
		meta:  make(map[string]InstrumentConfig),
		newFn: newFn,
	}
}

func (r registry[T]) lookup(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[name]
	return v, ok
}

func (r registry[T]) config(name string) (InstrumentConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.meta[name]
	return c, ok
}

func (r registry[T]) get(name string, opts []InstrumentOption) T {
	if v, ok := r.lookup(name); ok {
		return v
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// re-check after acquiring write lock
	if v, ok := r.items[name]; ok {
		return v
	}
	v := r.newFn()
	r.items[name] = v
	r.meta[name] = ApplyOptions(opts)
	return v
}

// BasicCounter is a concurrency-safe monotonic counter.
type BasicCounter struct {
	val atomic.Int64
}

// Add increments the counter by n.
func (c *BasicCounter) Add(n int64) { c.val.Add(n) }

// Snapshot returns the current value.
func (c *BasicCounter) Snapshot() int64 { return c.val.Load() }

// BasicUpDownCounter is a concurrency-safe up/down counter.
type BasicUpDownCounter struct {
	val atomic.Int64
}

// Add adds n (positive or negative).
func (u *BasicUpDownCounter) Add(n int64) { u.val.Add(n) }

// Snapshot returns the current value.
func (u *BasicUpDownCounter) Snapshot() int64 { return u.val.Load() }

// BasicHistogram tracks count, sum, min and max of recorded values.
type BasicHistogram struct {
	mu    sync.Mutex
	count int64
	sum   float64
	min   float64
	max   float64
}

// Record adds a measurement.
func (h *BasicHistogram) Record(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += v
	h.min = math.Min(h.min, v)
	h.max = math.Max(h.max, v)
}

// HistSnapshot is an immutable copy of a BasicHistogram.
type HistSnapshot struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
}

// Snapshot returns the histogram state at the time of call.
func (h *BasicHistogram) Snapshot() HistSnapshot {
	h.mu.Lock()
	s := HistSnapshot{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
	h.mu.Unlock()
	if s.Count > 0 {
		s.Mean = s.Sum / float64(s.Count)
	}
	return s
}
