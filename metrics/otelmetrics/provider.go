// Package otelmetrics adapts an OpenTelemetry meter to metrics.Provider.
package otelmetrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/ygrebnov/parallel/metrics"
)

// ScopeName is the instrumentation scope used by NewGlobal.
const ScopeName = "github.com/ygrebnov/parallel"

// Provider creates OpenTelemetry instruments on a single meter.
// Instrument creation errors fall back to a no-op instrument and are reported
// through otel.Handle.
type Provider struct {
	meter metric.Meter
}

var _ metrics.Provider = (*Provider)(nil)

// New returns a Provider recording on meter.
func New(meter metric.Meter) *Provider {
	return &Provider{meter: meter}
}

// NewGlobal returns a Provider recording on the global meter provider.
func NewGlobal() *Provider {
	return New(otel.GetMeterProvider().Meter(ScopeName))
}

func (p *Provider) Counter(name string, opts ...metrics.InstrumentOption) metrics.Counter {
	cfg := metrics.ApplyOptions(opts)
	c, err := p.meter.Int64Counter(name, metric.WithDescription(cfg.Description), metric.WithUnit(cfg.Unit))
	if err != nil {
		otel.Handle(err)
		return metrics.NewNoopProvider().Counter(name)
	}
	return int64Adder{add: func(ctx context.Context, n int64) { c.Add(ctx, n) }}
}

func (p *Provider) UpDownCounter(name string, opts ...metrics.InstrumentOption) metrics.UpDownCounter {
	cfg := metrics.ApplyOptions(opts)
	u, err := p.meter.Int64UpDownCounter(name, metric.WithDescription(cfg.Description), metric.WithUnit(cfg.Unit))
	if err != nil {
		otel.Handle(err)
		return metrics.NewNoopProvider().UpDownCounter(name)
	}
	return int64Adder{add: func(ctx context.Context, n int64) { u.Add(ctx, n) }}
}

func (p *Provider) Histogram(name string, opts ...metrics.InstrumentOption) metrics.Histogram {
	cfg := metrics.ApplyOptions(opts)
	h, err := p.meter.Float64Histogram(name, metric.WithDescription(cfg.Description), metric.WithUnit(cfg.Unit))
	if err != nil {
		otel.Handle(err)
		return metrics.NewNoopProvider().Histogram(name)
	}
	return histogram{h: h}
}

// int64Adder serves both counters and up/down counters.
type int64Adder struct {
	add func(ctx context.Context, n int64)
}

func (a int64Adder) Add(n int64) { a.add(context.Background(), n) }

type histogram struct {
	h metric.Float64Histogram
}

func (h histogram) Record(v float64) { h.h.Record(context.Background(), v) }
