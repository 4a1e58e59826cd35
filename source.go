package parallel

import (
	"iter"
	"slices"
)

// Sequence is a source of elements consumed in its natural iteration order.
// ForEach iterates it on the calling goroutine only.
type Sequence[T any] interface {
	All() iter.Seq[T]
}

// Indexed is a Sequence with random access and a known length.
// ForEach partitions Indexed sources by index instead of chunking them.
type Indexed[T any] interface {
	Sequence[T]
	Len() int
	At(i int) T
}

// Slice wraps items as an Indexed source.
func Slice[T any](items []T) Indexed[T] { return sliceSource[T](items) }

// Seq wraps an iterator as a Sequence. Seq(nil) returns nil.
func Seq[T any](seq iter.Seq[T]) Sequence[T] {
	if seq == nil {
		return nil
	}
	return seqSource[T](seq)
}

// Chan wraps a channel as a Sequence drained until it is closed. Chan(nil) returns nil.
func Chan[T any](ch <-chan T) Sequence[T] {
	if ch == nil {
		return nil
	}
	return chanSource[T](ch)
}

type sliceSource[T any] []T

func (s sliceSource[T]) All() iter.Seq[T] { return slices.Values(s) }
func (s sliceSource[T]) Len() int         { return len(s) }
func (s sliceSource[T]) At(i int) T       { return s[i] }

type seqSource[T any] iter.Seq[T]

func (s seqSource[T]) All() iter.Seq[T] { return iter.Seq[T](s) }

type chanSource[T any] <-chan T

func (c chanSource[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range c {
			if !yield(v) {
				return
			}
		}
	}
}
