package parallel

import (
	"errors"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/parallel/pool"
)

const Namespace = "parallel"

var (
	ErrNilArgument     = errors.New(Namespace + ": required argument is nil")
	ErrInvalidArgument = errors.New(Namespace + ": invalid argument")
	ErrInvalidConfig   = errors.New(Namespace + ": invalid configuration")

	// ErrBodyPanicked marks a fault recovered from a panicking body or action.
	ErrBodyPanicked = pool.ErrPanicked
)

func nilArgument(name string) error {
	return errorc.With(ErrNilArgument, errorc.String("argument", name))
}
