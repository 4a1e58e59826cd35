package pool

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Status is the lifecycle state of a Unit.
type Status int32

const (
	Pending Status = iota
	Running
	Completed
	Faulted
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Faulted:
		return "faulted"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// Terminal reports whether s is Completed or Faulted.
func (s Status) Terminal() bool { return s == Completed || s == Faulted }

// Action is the closure wrapped by a Unit.
type Action func(ctx context.Context) error

// Unit is one schedulable action plus its terminal status and captured fault.
//
// A unit runs at most once. Errors returned by the action and panics raised
// by it are stored on the unit and never propagate to the goroutine running it.
// Status and Err are final once Done is closed.
type Unit struct {
	ctx    context.Context
	action Action
	status atomic.Int32
	err    error
	done   chan struct{}
}

// NewUnit wraps action into a pending unit. The action will receive ctx,
// decorated by the pool when the unit runs on a worker.
func NewUnit(ctx context.Context, action Action) *Unit {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Unit{ctx: ctx, action: action, done: make(chan struct{})}
}

// Execute runs the unit on the calling goroutine with its own context.
// It returns false if the unit has already been picked up.
func (u *Unit) Execute() bool { return u.execute(u.ctx) }

func (u *Unit) execute(ctx context.Context) bool {
	if !u.status.CompareAndSwap(int32(Pending), int32(Running)) {
		return false
	}

	err := u.call(ctx)

	// err is published before status; both before done is closed.
	u.err = err
	if err != nil {
		u.status.Store(int32(Faulted))
	} else {
		u.status.Store(int32(Completed))
	}
	close(u.done)
	return true
}

// call centralizes panic recovery for the wrapped action.
func (u *Unit) call(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			if pErr, ok := p.(error); ok {
				err = fmt.Errorf("%w: %w", ErrPanicked, pErr)
				return
			}
			err = fmt.Errorf("%w: %v", ErrPanicked, p)
		}
	}()

	return u.action(ctx)
}

// Status returns the current status.
func (u *Unit) Status() Status { return Status(u.status.Load()) }

// Err returns the captured fault. It is only meaningful after Done is closed.
func (u *Unit) Err() error {
	select {
	case <-u.done:
		return u.err
	default:
		return nil
	}
}

// Done returns a channel closed once the unit reaches a terminal status.
func (u *Unit) Done() <-chan struct{} { return u.done }

// Wait blocks until the unit reaches a terminal status.
func (u *Unit) Wait() { <-u.done }
