package stream

import (
	"context"
	"sync"
)

// channelIter reads values from a channel fed by background goroutines.
type channelIter[T any] struct {
	ch     <-chan result[T]
	closer func() error
}

func (it *channelIter[T]) Next(ctx context.Context) (T, bool, error) {
	select {
	case r, open := <-it.ch:
		if !open {
			var zero T
			return zero, false, nil
		}
		return r.val, r.ok, r.err
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

func (it *channelIter[T]) Close() error {
	if it.closer != nil {
		return it.closer()
	}
	return nil
}

// Merge combines multiple streams concurrently.
// Values are yielded as they become available from any source; the first
// error ends the merged stream.
// Order is NOT preserved.
func Merge[T any](streams ...*Stream[T]) *Stream[T] {
	return &Stream[T]{
		create: func(ctx context.Context) Iterator[T] {
			mergeCtx, cancel := context.WithCancel(ctx)
			ch := make(chan result[T], len(streams))
			var wg sync.WaitGroup

			for _, s := range streams {
				iter := s.create(mergeCtx)
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer iter.Close()
					for {
						val, ok, err := iter.Next(mergeCtx)
						if err != nil {
							select {
							case ch <- result[T]{err: err}:
							case <-mergeCtx.Done():
							}
							return
						}
						if !ok {
							return
						}
						select {
						case ch <- result[T]{val: val, ok: true}:
						case <-mergeCtx.Done():
							return
						}
					}
				}()
			}

			go func() {
				wg.Wait()
				close(ch)
			}()

			return &channelIter[T]{
				ch: ch,
				closer: func() error {
					cancel()
					wg.Wait()
					return nil
				},
			}
		},
	}
}
