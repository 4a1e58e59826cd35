package parallel

import (
	"github.com/ygrebnov/errorc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ygrebnov/parallel/metrics"
)

// config holds Dispatcher configuration.
type config struct {
	// Settings is read once per dispatch call; its snapshot at New sizes the pool.
	// Default: DefaultSettings()
	Settings SettingsSource

	// Logger receives path selection at Debug and aggregated faults at Warn.
	// Default: zap.NewNop()
	Logger *zap.Logger

	// Metrics provides the dispatcher and pool instruments.
	// Default: metrics.NewNoopProvider()
	Metrics metrics.Provider

	// TracerProvider opens one span per parallel dispatch.
	// Default: otel.GetTracerProvider()
	TracerProvider trace.TracerProvider
}

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		Settings:       DefaultSettings(),
		Logger:         zap.NewNop(),
		Metrics:        metrics.NewNoopProvider(),
		TracerProvider: otel.GetTracerProvider(),
	}
}

// validateConfig checks the settings snapshot New will size the pool from.
func validateConfig(cfg *config) error {
	return cfg.Settings.Snapshot().Validate()
}

// Option configures a Dispatcher. Invalid input is reported by New.
type Option func(*config) error

// WithSettings selects the settings source, e.g. a Settings value or *LiveSettings.
func WithSettings(src SettingsSource) Option {
	return func(cfg *config) error {
		if src == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithSettings requires a non-nil source"))
		}
		cfg.Settings = src
		return nil
	}
}

// WithWorkers sets a static Settings source with WorkerCount n and defaults otherwise.
func WithWorkers(n uint) Option {
	return func(cfg *config) error {
		if n == 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithWorkers requires n > 0"))
		}
		s := DefaultSettings()
		s.WorkerCount = int(n)
		cfg.Settings = s
		return nil
	}
}

// WithLogger sets the logger for the dispatcher and its pool.
func WithLogger(l *zap.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithLogger requires a non-nil logger"))
		}
		cfg.Logger = l
		return nil
	}
}

// WithMetrics sets the metrics provider for the dispatcher and its pool.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) error {
		if tp == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithTracerProvider requires a non-nil provider"))
		}
		cfg.TracerProvider = tp
		return nil
	}
}
