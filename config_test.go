package parallel

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/ygrebnov/parallel/metrics"
)

func TestValidateConfig_Defaults(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, validateConfig(&cfg))
}

func TestDefaultConfig_Values(t *testing.T) {
	cfg := defaultConfig()
	require.Equal(t, DefaultSettings(), cfg.Settings.Snapshot())
	require.NotNil(t, cfg.Logger)
	require.NotNil(t, cfg.Metrics)
	require.Equal(t, otel.GetTracerProvider(), cfg.TracerProvider)
}

func TestOptions_Apply(t *testing.T) {
	logger := zap.NewExample()
	mp := metrics.NewBasicProvider()
	live := &LiveSettings{}

	cfg := defaultConfig()
	for _, opt := range []Option{WithSettings(live), WithLogger(logger), WithMetrics(mp)} {
		require.NoError(t, opt(&cfg))
	}
	require.Same(t, live, cfg.Settings)
	require.Same(t, logger, cfg.Logger)
	require.Same(t, mp, cfg.Metrics)

	require.NoError(t, WithWorkers(7)(&cfg))
	require.Equal(t, 7, cfg.Settings.Snapshot().WorkerCount)
	require.Equal(t, DefaultSettings().MaxChunkSize, cfg.Settings.Snapshot().MaxChunkSize)
}

func TestNew_InvalidOptions_ReturnsError(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"nil settings", WithSettings(nil)},
		{"zero workers", WithWorkers(0)},
		{"nil logger", WithLogger(nil)},
		{"nil metrics", WithMetrics(nil)},
		{"nil tracer provider", WithTracerProvider(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.opt)
			require.ErrorIs(t, err, ErrInvalidConfig)
			require.Nil(t, d)
		})
	}
}
