package stream

import (
	"context"
	"sync"
)

// State is the lifecycle state of a bridged subscription.
type State int32

const (
	// StateIdle means subscribe has not run yet.
	StateIdle State = iota
	// StateStarted means events are being accepted.
	StateStarted
	// StateCompleted means a terminal event was accepted; later events are dropped.
	StateCompleted
	// StateCancelled means the consumer closed the subscription before a
	// terminal event was delivered.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarted:
		return "started"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Emitter receives events from a callback-driven producer. All methods are
// safe to call from any goroutine and never block.
type Emitter[T any] interface {
	// Next queues a value. It reports false when the subscription no longer
	// accepts events.
	Next(v T) bool
	// Error queues a failure and ends the subscription.
	Error(err error)
	// Complete queues successful completion and ends the subscription.
	Complete()
}

// SubscribeFunc starts a callback-driven operation for one subscription.
// The returned dispose function, which may be nil, releases the operation.
type SubscribeFunc[T any] func(ctx context.Context, e Emitter[T]) (dispose func(), err error)

// Create builds a stream from a callback-driven operation.
//
// subscribe runs synchronously on the subscribing goroutine. If it returns
// an error the stream yields exactly that error and dispose is never called.
// Otherwise events are delivered in emission order and dispose runs exactly
// once, when the consumer receives the terminal event or closes the
// iterator, whichever happens first.
func Create[T any](subscribe SubscribeFunc[T]) *Stream[T] {
	return &Stream[T]{
		create: func(ctx context.Context) Iterator[T] {
			sub := &subscription[T]{signal: make(chan struct{}, 1)}
			sub.start(ctx, subscribe)
			return sub
		},
	}
}

// subscription is the Iterator handed to the consumer. Events are queued
// without bound so producers never block on a slow consumer.
type subscription[T any] struct {
	mu        sync.Mutex
	state     State
	queue     []result[T]
	delivered bool
	dispose   func()
	once      sync.Once
	signal    chan struct{}
}

func (s *subscription[T]) start(ctx context.Context, subscribe SubscribeFunc[T]) {
	s.mu.Lock()
	s.state = StateStarted
	s.mu.Unlock()

	dispose, err := subscribe(ctx, emitter[T]{sub: s})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateCompleted
		s.queue = []result[T]{{err: err}}
		return
	}
	s.dispose = dispose
}

// State returns the current lifecycle state.
func (s *subscription[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

type emitter[T any] struct {
	sub *subscription[T]
}

func (e emitter[T]) Next(v T) bool {
	return e.sub.push(result[T]{val: v, ok: true})
}

func (e emitter[T]) Error(err error) {
	e.sub.push(result[T]{err: err})
}

func (e emitter[T]) Complete() {
	e.sub.push(result[T]{})
}

func (s *subscription[T]) push(r result[T]) bool {
	s.mu.Lock()
	if s.state != StateStarted {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, r)
	if !r.ok {
		s.state = StateCompleted
	}
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *subscription[T]) notify() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscription[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			r := s.queue[0]
			s.queue[0] = result[T]{}
			s.queue = s.queue[1:]
			if !r.ok {
				s.delivered = true
			}
			s.mu.Unlock()
			if !r.ok {
				s.release()
				return zero, false, r.err
			}
			return r.val, true, nil
		}
		if s.delivered || s.state == StateCancelled {
			s.mu.Unlock()
			return zero, false, nil
		}
		s.mu.Unlock()

		select {
		case <-s.signal:
		case <-ctx.Done():
			return zero, false, ctx.Err()
		}
	}
}

func (s *subscription[T]) Close() error {
	s.mu.Lock()
	if s.state == StateStarted {
		s.state = StateCancelled
	}
	s.queue = nil
	s.delivered = true
	s.mu.Unlock()
	s.notify()
	s.release()
	return nil
}

func (s *subscription[T]) release() {
	s.once.Do(func() {
		s.mu.Lock()
		dispose := s.dispose
		s.mu.Unlock()
		if dispose != nil {
			dispose()
		}
	})
}
