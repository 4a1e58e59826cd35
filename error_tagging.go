package parallel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ygrebnov/parallel/pool"
)

// UnitMetaError exposes which unit of a dispatch call produced a fault.
type UnitMetaError interface {
	error
	Unwrap() error
	UnitIndex() int
}

// BodyError is a fault captured from one unit of work. The index is the unit's
// position in submission order within its dispatch call: the partition number
// for For, the chunk number for ForEach, the action index for Run.
type BodyError struct {
	err   error
	index int
}

func newBodyError(err error, index int) error {
	if err == nil {
		return nil
	}
	return &BodyError{err: err, index: index}
}

func (e *BodyError) Error() string  { return e.err.Error() }
func (e *BodyError) Unwrap() error  { return e.err }
func (e *BodyError) UnitIndex() int { return e.index }

func (e *BodyError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "unit(index=%d): %+v", e.index, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractUnitIndex returns the unit index carried by err, if any.
func ExtractUnitIndex(err error) (int, bool) {
	var ume UnitMetaError
	if errors.As(err, &ume) {
		return ume.UnitIndex(), true
	}
	return 0, false
}

// AggregateError is the single error returned by a dispatch call in which one
// or more units faulted. Faults are kept in submission order.
type AggregateError struct {
	errs []error
}

// Errors returns the faults in submission order. Each is a *BodyError.
func (e *AggregateError) Errors() []error {
	out := make([]error, len(e.errs))
	copy(out, e.errs)
	return out
}

// Unwrap lets errors.Is and errors.As inspect every fault.
func (e *AggregateError) Unwrap() []error { return e.errs }

func (e *AggregateError) Error() string {
	if len(e.errs) == 1 {
		return e.errs[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d faults occurred:", len(e.errs))
	for _, err := range e.errs {
		b.WriteString("\n\t* ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// aggregate folds the outcomes of terminal units in submission order and
// releases the units. It returns nil if no unit faulted.
func aggregate(units []*pool.Unit) error {
	var errs []error
	for i, u := range units {
		if u.Status() == pool.Faulted {
			errs = append(errs, newBodyError(u.Err(), i))
		}
		units[i] = nil
	}
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{errs: errs}
}
