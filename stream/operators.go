package stream

import (
	"context"
)

// Map transforms each value using fn.
func Map[I, O any](s *Stream[I], fn func(context.Context, I) (O, error)) *Stream[O] {
	return &Stream[O]{
		create: func(ctx context.Context) Iterator[O] {
			return &mapIter[I, O]{source: s.create(ctx), fn: fn}
		},
	}
}

// FlatMap transforms each value into an iterator and flattens the results.
// Each inner iterator is drained before the next source value is pulled.
func FlatMap[I, O any](s *Stream[I], fn func(context.Context, I) (Iterator[O], error)) *Stream[O] {
	return &Stream[O]{
		create: func(ctx context.Context) Iterator[O] {
			return &flatMapIter[I, O]{source: s.create(ctx), fn: fn}
		},
	}
}

// Then subscribes to the stream returned by fn for every source value and
// flattens the results in order.
func Then[I, O any](s *Stream[I], fn func(I) *Stream[O]) *Stream[O] {
	return FlatMap(s, func(ctx context.Context, v I) (Iterator[O], error) {
		return fn(v).create(ctx), nil
	})
}

// Filter keeps only values that satisfy the predicate.
func Filter[T any](s *Stream[T], fn func(T) bool) *Stream[T] {
	return &Stream[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &filterIter[T]{source: s.create(ctx), fn: fn}
		},
	}
}

// Tap calls fn as a side-effect for each value, then passes the value through
// unchanged. An error from fn fails the stream.
func Tap[T any](s *Stream[T], fn func(context.Context, T) error) *Stream[T] {
	return &Stream[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &tapIter[T]{source: s.create(ctx), fn: fn}
		},
	}
}

// Concat joins streams sequentially. Each stream is subscribed only after the
// previous one completes.
func Concat[T any](streams ...*Stream[T]) *Stream[T] {
	return &Stream[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &concatIter[T]{streams: streams, ctx: ctx}
		},
	}
}

// StartWith yields vals before the values of s. Unlike Concat, s is
// subscribed immediately so no source event is missed while the prefix is
// being consumed.
func StartWith[T any](s *Stream[T], vals ...T) *Stream[T] {
	return &Stream[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &prefixIter[T]{prefix: vals, source: s.create(ctx)}
		},
	}
}

// --- Iterator implementations ---

type mapIter[I, O any] struct {
	source Iterator[I]
	fn     func(context.Context, I) (O, error)
}

func (it *mapIter[I, O]) Next(ctx context.Context) (result O, ok bool, err error) {
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		var zero O
		return zero, false, err
	}
	out, err := it.fn(ctx, val)
	if err != nil {
		var zero O
		return zero, false, err
	}
	return out, true, nil
}

func (it *mapIter[I, O]) Close() error { return it.source.Close() }

type flatMapIter[I, O any] struct {
	source  Iterator[I]
	fn      func(context.Context, I) (Iterator[O], error)
	current Iterator[O]
}

func (it *flatMapIter[I, O]) Next(ctx context.Context) (result O, ok bool, err error) {
	for {
		if it.current != nil {
			val, ok, err := it.current.Next(ctx)
			if err != nil {
				var zero O
				return zero, false, err
			}
			if ok {
				return val, true, nil
			}
			_ = it.current.Close()
			it.current = nil
		}
		in, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			var zero O
			return zero, false, err
		}
		inner, err := it.fn(ctx, in)
		if err != nil {
			var zero O
			return zero, false, err
		}
		it.current = inner
	}
}

func (it *flatMapIter[I, O]) Close() error {
	if it.current != nil {
		_ = it.current.Close()
		it.current = nil
	}
	return it.source.Close()
}

type filterIter[T any] struct {
	source Iterator[T]
	fn     func(T) bool
}

func (it *filterIter[T]) Next(ctx context.Context) (result T, ok bool, err error) {
	for {
		val, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return val, false, err
		}
		if it.fn(val) {
			return val, true, nil
		}
	}
}

func (it *filterIter[T]) Close() error { return it.source.Close() }

type tapIter[T any] struct {
	source Iterator[T]
	fn     func(context.Context, T) error
}

func (it *tapIter[T]) Next(ctx context.Context) (result T, ok bool, err error) {
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return val, ok, err
	}
	if err := it.fn(ctx, val); err != nil {
		var zero T
		return zero, false, err
	}
	return val, true, nil
}

func (it *tapIter[T]) Close() error { return it.source.Close() }

type concatIter[T any] struct {
	streams []*Stream[T]
	ctx     context.Context
	current Iterator[T]
	index   int
}

func (it *concatIter[T]) Next(ctx context.Context) (result T, ok bool, err error) {
	for {
		if it.current == nil {
			if it.index >= len(it.streams) {
				var zero T
				return zero, false, nil
			}
			it.current = it.streams[it.index].create(it.ctx)
			it.index++
		}
		val, ok, err := it.current.Next(ctx)
		if err != nil {
			return val, false, err
		}
		if ok {
			return val, true, nil
		}
		_ = it.current.Close()
		it.current = nil
	}
}

func (it *concatIter[T]) Close() error {
	it.index = len(it.streams)
	if it.current == nil {
		return nil
	}
	err := it.current.Close()
	it.current = nil
	return err
}

type prefixIter[T any] struct {
	prefix []T
	source Iterator[T]
}

func (it *prefixIter[T]) Next(ctx context.Context) (result T, ok bool, err error) {
	if len(it.prefix) > 0 {
		val := it.prefix[0]
		it.prefix = it.prefix[1:]
		return val, true, nil
	}
	return it.source.Next(ctx)
}

func (it *prefixIter[T]) Close() error {
	it.prefix = nil
	return it.source.Close()
}
