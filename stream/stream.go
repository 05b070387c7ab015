package stream

import (
	"context"
	"errors"
)

// ErrEmpty is returned by First and Last when the stream completes without
// producing a value.
var ErrEmpty = errors.New("stream: completed without a value")

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Stream is a lazy, pull-based sequence of values. Every call to Iter
// creates an independent subscription.
type Stream[T any] struct {
	create func(ctx context.Context) Iterator[T]
}

// Runnable is a fully-configured stream consumer ready to execute.
type Runnable struct {
	run func(ctx context.Context) error
}

// Run consumes the stream until completion or context cancellation.
func (r *Runnable) Run(ctx context.Context) error {
	return r.run(ctx)
}

// result carries a value, a terminal marker, or an error.
type result[T any] struct {
	val T
	ok  bool
	err error
}

// --- Constructors ---

// From creates a stream from an existing Iterator. The iterator is shared,
// so the stream can only be consumed once.
func From[T any](iter Iterator[T]) *Stream[T] {
	return &Stream[T]{
		create: func(_ context.Context) Iterator[T] {
			return iter
		},
	}
}

// FromSlice creates a stream from a slice of values.
func FromSlice[T any](items []T) *Stream[T] {
	return &Stream[T]{
		create: func(_ context.Context) Iterator[T] {
			return &sliceIter[T]{items: items}
		},
	}
}

// FromFunc creates a stream from a factory that produces an Iterator.
func FromFunc[T any](fn func(ctx context.Context) Iterator[T]) *Stream[T] {
	return &Stream[T]{create: fn}
}

// Just creates a stream that yields the given values and completes.
func Just[T any](vals ...T) *Stream[T] {
	return FromSlice(vals)
}

// Fail creates a stream that yields err and nothing else.
func Fail[T any](err error) *Stream[T] {
	return &Stream[T]{
		create: func(_ context.Context) Iterator[T] {
			return &failIter[T]{err: err}
		},
	}
}

// Iter subscribes to the stream and returns its Iterator. The caller must
// Close it.
func (s *Stream[T]) Iter(ctx context.Context) Iterator[T] {
	return s.create(ctx)
}

// --- Terminals ---

// Drain creates a Runnable that pulls all values and sends each to sink.
func Drain[T any](s *Stream[T], sink func(context.Context, T) error) *Runnable {
	return &Runnable{
		run: func(ctx context.Context) error {
			iter := s.create(ctx)
			defer iter.Close()
			for {
				val, ok, err := iter.Next(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				if err := sink(ctx, val); err != nil {
					return err
				}
			}
		},
	}
}

// Collect consumes the stream and returns all values as a slice. Values
// produced before a failure are returned along with the error.
func Collect[T any](ctx context.Context, s *Stream[T]) ([]T, error) {
	iter := s.create(ctx)
	defer iter.Close()
	var out []T
	for {
		val, ok, err := iter.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, val)
	}
}

// ForEach pulls all values and calls fn for each.
func ForEach[T any](ctx context.Context, s *Stream[T], fn func(context.Context, T) error) error {
	return Drain(s, fn).Run(ctx)
}

// First returns the first value and closes the subscription.
func First[T any](ctx context.Context, s *Stream[T]) (T, error) {
	iter := s.create(ctx)
	defer iter.Close()
	val, ok, err := iter.Next(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if !ok {
		var zero T
		return zero, ErrEmpty
	}
	return val, nil
}

// Last consumes the stream and returns its final value.
func Last[T any](ctx context.Context, s *Stream[T]) (T, error) {
	iter := s.create(ctx)
	defer iter.Close()
	var (
		last T
		seen bool
	)
	for {
		val, ok, err := iter.Next(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		if !ok {
			break
		}
		last, seen = val, true
	}
	if !seen {
		return last, ErrEmpty
	}
	return last, nil
}

// --- Internal iterators ---

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

type failIter[T any] struct {
	err  error
	done bool
}

func (it *failIter[T]) Next(_ context.Context) (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	it.done = true
	return zero, false, it.err
}

func (it *failIter[T]) Close() error { return nil }
