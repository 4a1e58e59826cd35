package parallel

import (
	"context"

	"github.com/ygrebnov/parallel/pool"
)

// Body is invoked once per index by For. The context carries the caller's
// values; when the body runs on a pool worker it also carries the worker
// marker, so nested calls made with it run serially.
//
// A body that calls For, ForEach or Run must pass ctx along. A nested call
// made with a fresh context, e.g. context.Background(), queues work behind
// the busy workers and can deadlock the pool.
type Body func(ctx context.Context, i int) error

// Action is one independent action executed by Run. As with Body, nested
// calls made from an action must use the context it received.
type Action = pool.Action

// IndexFunc adapts a plain per-index function to Body.
// A panic inside fn is still captured as a fault.
func IndexFunc(fn func(i int)) Body {
	if fn == nil {
		return nil
	}
	return func(_ context.Context, i int) error { fn(i); return nil }
}

// ActionFunc adapts a plain thunk to Action.
func ActionFunc(fn func()) Action {
	if fn == nil {
		return nil
	}
	return func(context.Context) error { fn(); return nil }
}

// ElementFunc adapts a plain per-element function to a ForEach body.
func ElementFunc[T any](fn func(T)) func(context.Context, T) error {
	if fn == nil {
		return nil
	}
	return func(_ context.Context, v T) error { fn(v); return nil }
}
