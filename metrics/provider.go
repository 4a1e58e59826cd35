// Package metrics defines the small instrument surface used by the dispatcher
// and the worker pool to report dispatch counts, queue depth and unit
// execution time.
//
// Implementations: BasicProvider (in-memory, for tests and small apps),
// NoopProvider (the default) and otelmetrics.Provider (OpenTelemetry).
package metrics

// Provider constructs instruments by name.
// Implementations must be safe for concurrent use and should return the same
// instrument for repeated requests of one name.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter records monotonic counts.
type Counter interface {
	Add(n int64)
}

// UpDownCounter records a value that moves both ways, e.g. queue depth.
type UpDownCounter interface {
	Add(n int64)
}

// Histogram records float64 measurements, e.g. durations in seconds.
type Histogram interface {
	Record(v float64)
}

// InstrumentConfig carries advisory instrument metadata.
type InstrumentConfig struct {
	Description string
	Unit        string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription sets the instrument description.
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit sets the instrument unit (e.g., "1", "seconds").
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}

// ApplyOptions folds opts into an InstrumentConfig. Nil options are skipped.
func ApplyOptions(opts []InstrumentOption) InstrumentConfig {
	var cfg InstrumentConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg
}
