// Package pool provides the execution layer used by the parallel dispatcher:
// a unit of work that captures its own fault, and a fixed set of long-lived
// workers draining one shared FIFO queue of units.
package pool

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by Submit after the pool has been closed.
	ErrClosed = errors.New("pool: closed")

	// ErrPanicked marks a fault recovered from a panicking unit action.
	ErrPanicked = errors.New("pool: unit action panicked")
)

// Pool is an interface that defines methods on a pool of workers.
type Pool interface {
	// Submit enqueues units for execution by the pool workers.
	// Either all units are enqueued or, on error, none of them.
	Submit(units ...*Unit) error

	// WaitAll blocks until every given unit has reached a terminal status.
	WaitAll(units ...*Unit)

	// IsWorker reports whether ctx was handed out by one of this pool's workers.
	IsWorker(ctx context.Context) bool

	// Size returns the number of workers.
	Size() int

	// Close stops the workers once the queue is drained.
	Close()
}
