package stream

import (
	"context"
	"time"
)

// Throttle drops values that arrive faster than the given interval.
// Only the first value in each interval window is emitted. When keepLast is
// true the final value of the stream is always emitted, even if it falls
// inside a window, so consumers observing progress still see the end state.
func Throttle[T any](s *Stream[T], interval time.Duration, keepLast bool) *Stream[T] {
	return &Stream[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &throttleIter[T]{
				source:   s.create(ctx),
				interval: interval,
				keepLast: keepLast,
			}
		},
	}
}

type throttleIter[T any] struct {
	source   Iterator[T]
	interval time.Duration
	keepLast bool
	lastEmit time.Time
	pending  *T
	done     bool
}

func (it *throttleIter[T]) Next(ctx context.Context) (result T, ok bool, err error) {
	for {
		if it.done {
			var zero T
			return zero, false, nil
		}
		val, ok, err := it.source.Next(ctx)
		if err != nil {
			return val, false, err
		}
		if !ok {
			it.done = true
			if it.pending != nil {
				last := *it.pending
				it.pending = nil
				return last, true, nil
			}
			return val, false, nil
		}
		now := time.Now()
		if it.lastEmit.IsZero() || now.Sub(it.lastEmit) >= it.interval {
			it.lastEmit = now
			it.pending = nil
			return val, true, nil
		}
		if it.keepLast {
			v := val
			it.pending = &v
		}
	}
}

func (it *throttleIter[T]) Close() error { return it.source.Close() }
