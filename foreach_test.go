package parallel

import (
	"context"
	"errors"
	"iter"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ygrebnov/parallel/metrics"
)

// count yields 0, 1, ..., n-1.
func count(n int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < n; i++ {
			if !yield(i) {
				return
			}
		}
	}
}

func TestForEach_NilArguments(t *testing.T) {
	d := newTestDispatcher(t, WithWorkers(2))
	body := func(context.Context, int) error { return nil }

	tests := []struct {
		name string
		call func() error
	}{
		{"nil dispatcher", func() error { return ForEach(context.Background(), nil, Slice([]int{1}), body) }},
		{"nil source", func() error { return ForEach[int](context.Background(), d, nil, body) }},
		{"nil seq", func() error { return ForEach(context.Background(), d, Seq[int](nil), body) }},
		{"nil chan", func() error { return ForEach(context.Background(), d, Chan[int](nil), body) }},
		{"nil body", func() error { return ForEach[int](context.Background(), d, Slice([]int{1}), nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.call(), ErrNilArgument)
		})
	}
}

func TestForEach_SliceDelegatesToFor(t *testing.T) {
	mp := metrics.NewBasicProvider()
	d := newTestDispatcher(t, WithWorkers(4), WithMetrics(mp))

	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	var sum atomic.Int64
	require.NoError(t, ForEach(context.Background(), d, Slice(items), ElementFunc(func(v int) { sum.Add(int64(v)) })))

	require.EqualValues(t, 4950, sum.Load())
	require.EqualValues(t, 4, mp.CounterValue(MetricUnitsSubmitted))
}

func TestForEach_SeqIsChunkedAdaptively(t *testing.T) {
	mp := metrics.NewBasicProvider()
	d := newTestDispatcher(t, WithWorkers(4), WithMetrics(mp))

	// Default chunks: 16, 32, then the remaining 52 elements.
	var sum atomic.Int64
	require.NoError(t, ForEach(context.Background(), d, Seq(count(100)), ElementFunc(func(v int) { sum.Add(int64(v)) })))

	require.EqualValues(t, 4950, sum.Load())
	require.EqualValues(t, 3, mp.CounterValue(MetricUnitsSubmitted))
}

func TestForEach_EveryElementExactlyOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := Settings{
			WorkerCount:       rapid.IntRange(1, 8).Draw(t, "workers"),
			InitialChunkSize:  rapid.IntRange(1, 8).Draw(t, "initial"),
			ChunkGrowthFactor: rapid.Float64Range(1.1, 3).Draw(t, "growth"),
		}
		s.MaxChunkSize = rapid.IntRange(s.InitialChunkSize, 32).Draw(t, "max")
		n := rapid.IntRange(0, 400).Draw(t, "n")

		d, err := New(WithSettings(s))
		require.NoError(t, err)
		defer d.Close()

		counts := make([]atomic.Int32, n)
		err = ForEach(context.Background(), d, Seq(count(n)), func(_ context.Context, v int) error {
			counts[v].Add(1)
			return nil
		})
		require.NoError(t, err)
		for i := range counts {
			require.EqualValues(t, 1, counts[i].Load(), "element %d", i)
		}
	})
}

func TestForEach_ChunkReplaysSourceOrder(t *testing.T) {
	s := settingsWithWorkers(4)
	s.InitialChunkSize, s.ChunkGrowthFactor, s.MaxChunkSize = 4, 2, 4
	d := newTestDispatcher(t, WithSettings(s))

	// Every chunk holds four consecutive elements [4k, 4k+4).
	var mu sync.Mutex
	byChunk := map[int][]int{}
	err := ForEach(context.Background(), d, Seq(count(40)), func(_ context.Context, v int) error {
		mu.Lock()
		byChunk[v/4] = append(byChunk[v/4], v)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	require.Len(t, byChunk, 10)
	for k, got := range byChunk {
		require.Equal(t, []int{4 * k, 4*k + 1, 4*k + 2, 4*k + 3}, got, "chunk %d", k)
	}
}

func TestForEach_FaultTaggedWithChunkIndex(t *testing.T) {
	s := settingsWithWorkers(4)
	s.InitialChunkSize, s.ChunkGrowthFactor, s.MaxChunkSize = 2, 2, 8
	d := newTestDispatcher(t, WithSettings(s))
	errBoom := errors.New("boom")

	// Chunks: [0,2) [2,6) [6,14) [14,22) [22,30).
	var visited atomic.Int32
	err := ForEach(context.Background(), d, Seq(count(30)), func(_ context.Context, v int) error {
		visited.Add(1)
		if v == 7 {
			return errBoom
		}
		return nil
	})

	require.ErrorIs(t, err, errBoom)
	idx, ok := ExtractUnitIndex(err)
	require.True(t, ok)
	require.Equal(t, 2, idx)
	// Elements 8..13 share the faulted chunk and are skipped.
	require.EqualValues(t, 24, visited.Load())
}

func TestForEach_ChanDrainedUntilClosed(t *testing.T) {
	d := newTestDispatcher(t, WithWorkers(4))

	ch := make(chan int)
	go func() {
		defer close(ch)
		for i := 0; i < 1000; i++ {
			ch <- i
		}
	}()

	counts := make([]atomic.Int32, 1000)
	require.NoError(t, ForEach(context.Background(), d, Chan(ch), func(_ context.Context, v int) error {
		counts[v].Add(1)
		return nil
	}))
	for i := range counts {
		require.EqualValues(t, 1, counts[i].Load(), "element %d", i)
	}
}

func TestForEach_DisabledConsumesInOrder(t *testing.T) {
	s := settingsWithWorkers(4)
	s.DisableParallelization = true
	d := newTestDispatcher(t, WithSettings(s))
	errBoom := errors.New("boom")

	var got []int
	err := ForEach(context.Background(), d, Seq(count(10)), func(ctx context.Context, v int) error {
		require.False(t, d.pool.IsWorker(ctx))
		got = append(got, v)
		if v == 6 {
			return errBoom
		}
		return nil
	})

	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, got)
	require.ErrorIs(t, err, errBoom)
	idx, ok := ExtractUnitIndex(err)
	require.True(t, ok)
	require.Zero(t, idx)
}

func TestForEach_EmptySequence(t *testing.T) {
	mp := metrics.NewBasicProvider()
	d := newTestDispatcher(t, WithWorkers(4), WithMetrics(mp))

	require.NoError(t, ForEach(context.Background(), d, Seq(count(0)), func(context.Context, int) error {
		t.Error("body must not run")
		return nil
	}))
	require.Zero(t, mp.CounterValue(MetricUnitsSubmitted))
}

func TestForEach_HugeChunkSizeOnShortSource(t *testing.T) {
	s := Settings{WorkerCount: 2, InitialChunkSize: 1 << 50, ChunkGrowthFactor: 2, MaxChunkSize: 1 << 50}
	require.NoError(t, s.Validate())
	d := newTestDispatcher(t, WithSettings(s))

	var sum atomic.Int64
	require.NotPanics(t, func() {
		err := ForEach(context.Background(), d, Seq(count(3)), ElementFunc(func(v int) { sum.Add(int64(v)) }))
		require.NoError(t, err)
	})
	require.EqualValues(t, 3, sum.Load())
}

func TestForEach_NestedInsideFor(t *testing.T) {
	d := newTestDispatcher(t, WithWorkers(2))

	var total atomic.Int32
	err := d.For(context.Background(), 0, 4, func(ctx context.Context, _ int) error {
		return ForEach(ctx, d, Seq(count(50)), func(context.Context, int) error {
			total.Add(1)
			return nil
		})
	})
	require.NoError(t, err)
	require.EqualValues(t, 200, total.Load())
}
