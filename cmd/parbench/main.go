// Package main is the entry point for parbench, which times a CPU-bound
// workload on the calling goroutine and on a parallel Dispatcher.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ygrebnov/parallel"
	"github.com/ygrebnov/parallel/metrics"
)

var version = "dev"

const (
	modeFor     = "for"
	modeForEach = "foreach"
	modeRun     = "run"
)

// options are the parsed command line flags.
type options struct {
	configFile  string
	workers     int
	size        int
	rounds      int
	mode        string
	verbose     bool
	trace       bool
	showVersion bool
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "parbench:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("parbench", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configFile, "config", "", "settings file path (YAML/JSON)")
	fs.IntVar(&o.workers, "workers", 0, "worker count, overrides the settings file")
	fs.IntVar(&o.size, "size", 1_000_000, "number of elements in the workload")
	fs.IntVar(&o.rounds, "rounds", 3, "timed rounds per mode")
	fs.StringVar(&o.mode, "mode", modeFor, "primitive to time (for, foreach, run)")
	fs.BoolVar(&o.verbose, "v", false, "log dispatcher activity at debug level")
	fs.BoolVar(&o.trace, "trace", false, "export dispatch spans to stderr")
	fs.BoolVar(&o.showVersion, "version", false, "print version")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `parbench - serial vs. parallel timing for the parallel package

Usage:
  parbench [options]

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(stderr, `
Examples:
  parbench -size 5000000 -workers 8
  parbench -config parallel.yaml -mode foreach
  parbench -size 1000 -rounds 1 -trace
`)
	}

	if err := fs.Parse(args); err != nil {
		return o, err
	}

	switch {
	case o.size < 0:
		return o, fmt.Errorf("invalid -size %d", o.size)
	case o.rounds < 1:
		return o, fmt.Errorf("invalid -rounds %d", o.rounds)
	case o.workers < 0:
		return o, fmt.Errorf("invalid -workers %d", o.workers)
	}
	switch o.mode {
	case modeFor, modeForEach, modeRun:
	default:
		return o, fmt.Errorf("unknown -mode %q", o.mode)
	}
	return o, nil
}

// buildSettings loads the settings file, if any, and applies flag overrides.
func buildSettings(o options) (parallel.Settings, error) {
	s := parallel.DefaultSettings()
	if o.configFile != "" {
		var err error
		if s, err = parallel.LoadSettings(o.configFile); err != nil {
			return s, fmt.Errorf("failed to load settings: %w", err)
		}
	}
	if o.workers > 0 {
		s.WorkerCount = o.workers
	}
	return s, s.Validate()
}

func newLogger(verbose bool, w io.Writer) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level))
}

// newTracerProvider exports every span synchronously as pretty-printed JSON.
func newTracerProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSyncer(exporter),
	), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.showVersion {
		fmt.Fprintf(stdout, "parbench version %s\n", version)
		return nil
	}

	s, err := buildSettings(o)
	if err != nil {
		return err
	}
	live, err := parallel.NewLiveSettings(s)
	if err != nil {
		return err
	}

	logger := newLogger(o.verbose, stderr)
	defer func() { _ = logger.Sync() }()

	mp := metrics.NewBasicProvider()
	opts := []parallel.Option{
		parallel.WithSettings(live),
		parallel.WithLogger(logger),
		parallel.WithMetrics(mp),
	}
	if o.trace {
		tp, err := newTracerProvider(stderr)
		if err != nil {
			return err
		}
		defer func() { _ = tp.Shutdown(ctx) }()
		opts = append(opts, parallel.WithTracerProvider(tp))
	}

	d, err := parallel.New(opts...)
	if err != nil {
		return err
	}
	defer d.Close()

	w := newWorkload(o.size)
	logger.Info("workload ready",
		zap.String("mode", o.mode), zap.Int("size", o.size), zap.Int("workers", d.Workers()))

	disabled := s.DisableParallelization
	live.SetDisableParallelization(true)
	serial, serialSum, err := timeRounds(ctx, d, w, o)
	if err != nil {
		return fmt.Errorf("serial round failed: %w", err)
	}

	live.SetDisableParallelization(disabled)
	par, parSum, err := timeRounds(ctx, d, w, o)
	if err != nil {
		return fmt.Errorf("parallel round failed: %w", err)
	}

	if !sameResult(serialSum, parSum) {
		return fmt.Errorf("result mismatch: serial=%g parallel=%g", serialSum, parSum)
	}

	fmt.Fprintf(stdout, "mode:      %s\n", o.mode)
	fmt.Fprintf(stdout, "size:      %d\n", o.size)
	fmt.Fprintf(stdout, "workers:   %d\n", d.Workers())
	fmt.Fprintf(stdout, "serial:    %s\n", serial)
	fmt.Fprintf(stdout, "parallel:  %s\n", par)
	if par > 0 {
		fmt.Fprintf(stdout, "speedup:   %.2fx\n", float64(serial)/float64(par))
	}
	fmt.Fprintf(stdout, "dispatches: %d inline: %d units: %d\n",
		mp.CounterValue(parallel.MetricDispatches),
		mp.CounterValue(parallel.MetricInline),
		mp.CounterValue(parallel.MetricUnitsSubmitted))
	return nil
}

// timeRounds runs the selected mode o.rounds times and returns the best duration.
func timeRounds(ctx context.Context, d *parallel.Dispatcher, w *workload, o options) (time.Duration, float64, error) {
	best := time.Duration(math.MaxInt64)
	var sum float64
	for i := 0; i < o.rounds; i++ {
		start := time.Now()
		var err error
		switch o.mode {
		case modeFor:
			err = w.viaFor(ctx, d)
		case modeForEach:
			err = w.viaForEach(ctx, d)
		case modeRun:
			err = w.viaRun(ctx, d)
		}
		if err != nil {
			return 0, 0, err
		}
		best = min(best, time.Since(start))
		sum = w.sum()
	}
	return best, sum, nil
}

func sameResult(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(a))
}
