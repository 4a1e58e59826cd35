package main

import (
	"context"
	"iter"
	"math"

	"github.com/ygrebnov/parallel"
)

// workload evaluates a fixed numeric kernel for every input, writing each
// result to its own slot.
type workload struct {
	in  []float64
	out []float64
}

func newWorkload(n int) *workload {
	w := &workload{in: make([]float64, n), out: make([]float64, n)}
	for i := range w.in {
		w.in[i] = float64(i) / 1000
	}
	return w
}

func kernel(x float64) float64 {
	v := x
	for k := 0; k < 32; k++ {
		v = math.Sin(v) + math.Sqrt(math.Abs(v)+x)
	}
	return v
}

func (w *workload) viaFor(ctx context.Context, d *parallel.Dispatcher) error {
	return d.For(ctx, 0, len(w.in), func(_ context.Context, i int) error {
		w.out[i] = kernel(w.in[i])
		return nil
	})
}

func (w *workload) viaForEach(ctx context.Context, d *parallel.Dispatcher) error {
	return parallel.ForEach(ctx, d, parallel.Seq(w.indices()), func(_ context.Context, i int) error {
		w.out[i] = kernel(w.in[i])
		return nil
	})
}

// viaRun splits the inputs into one action per worker.
func (w *workload) viaRun(ctx context.Context, d *parallel.Dispatcher) error {
	n := max(d.Workers(), 1)
	size := (len(w.in) + n - 1) / n
	actions := make([]parallel.Action, 0, n)
	for low := 0; low < len(w.in); low += size {
		high := min(low+size, len(w.in))
		actions = append(actions, func(context.Context) error {
			for i := low; i < high; i++ {
				w.out[i] = kernel(w.in[i])
			}
			return nil
		})
	}
	return d.Run(ctx, actions)
}

// indices yields input positions without exposing the length, so ForEach
// takes its chunking path.
func (w *workload) indices() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := range w.in {
			if !yield(i) {
				return
			}
		}
	}
}

func (w *workload) sum() float64 {
	var s float64
	for _, v := range w.out {
		s += v
	}
	return s
}
