package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeOp is a callback-driven operation driven by the test.
type fakeOp struct {
	onValue  func(int)
	onFinish func(error)
	cancels  atomic.Int32
}

func (op *fakeOp) stream() *Stream[int] {
	return Create(func(_ context.Context, e Emitter[int]) (func(), error) {
		op.onValue = func(v int) { e.Next(v) }
		op.onFinish = func(err error) {
			if err != nil {
				e.Error(err)
				return
			}
			e.Complete()
		}
		return func() { op.cancels.Add(1) }, nil
	})
}

func TestCreate_DeliversInOrderThenCompletes(t *testing.T) {
	op := &fakeOp{}
	iter := op.stream().Iter(context.Background())
	defer iter.Close()

	go func() {
		for i := 1; i <= 3; i++ {
			op.onValue(i)
		}
		op.onFinish(nil)
		op.onValue(99)
	}()

	var got []int
	for {
		v, ok, err := iter.Next(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		got = append(got, v)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
	if n := op.cancels.Load(); n != 1 {
		t.Errorf("dispose ran %d times, want 1", n)
	}

	_ = iter.Close()
	if n := op.cancels.Load(); n != 1 {
		t.Errorf("dispose ran %d times after Close, want 1", n)
	}
}

func TestCreate_ErrorIsTerminal(t *testing.T) {
	op := &fakeOp{}
	iter := op.stream().Iter(context.Background())
	defer iter.Close()

	boom := errors.New("boom")
	op.onValue(1)
	op.onFinish(boom)
	op.onFinish(nil)

	if v, ok, err := iter.Next(context.Background()); err != nil || !ok || v != 1 {
		t.Fatalf("first = %v %v %v", v, ok, err)
	}
	if _, ok, err := iter.Next(context.Background()); ok || !errors.Is(err, boom) {
		t.Fatalf("expected boom, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := iter.Next(context.Background()); ok || err != nil {
		t.Fatalf("expected exhausted after terminal, got ok=%v err=%v", ok, err)
	}
	if n := op.cancels.Load(); n != 1 {
		t.Errorf("dispose ran %d times, want 1", n)
	}
}

func TestCreate_SubscribeErrorSkipsDispose(t *testing.T) {
	boom := errors.New("bad url")
	disposed := false
	s := Create(func(_ context.Context, e Emitter[string]) (func(), error) {
		e.Next("ignored")
		return func() { disposed = true }, boom
	})

	got, err := Collect(context.Background(), s)
	if !errors.Is(err, boom) {
		t.Fatalf("expected subscribe error, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no values, got %v", got)
	}
	if disposed {
		t.Error("dispose must not run when subscribe fails")
	}
}

func TestCreate_CloseCancelsAndDropsLateEvents(t *testing.T) {
	op := &fakeOp{}
	iter := op.stream().Iter(context.Background())

	op.onValue(1)
	if err := iter.Close(); err != nil {
		t.Fatal(err)
	}
	if n := op.cancels.Load(); n != 1 {
		t.Fatalf("dispose ran %d times, want 1", n)
	}
	if st := iter.(*subscription[int]).State(); st != StateCancelled {
		t.Errorf("state = %v, want cancelled", st)
	}

	op.onValue(2)
	op.onFinish(errors.New("late"))
	if _, ok, err := iter.Next(context.Background()); ok || err != nil {
		t.Errorf("expected nothing after Close, got ok=%v err=%v", ok, err)
	}
	_ = iter.Close()
	if n := op.cancels.Load(); n != 1 {
		t.Errorf("dispose ran %d times, want 1", n)
	}
}

func TestCreate_CloseUnblocksPendingNext(t *testing.T) {
	op := &fakeOp{}
	iter := op.stream().Iter(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = iter.Next(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	_ = iter.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Next did not return after Close")
	}
}

func TestCreate_ContextCancellation(t *testing.T) {
	op := &fakeOp{}
	ctx, cancel := context.WithCancel(context.Background())
	iter := op.stream().Iter(ctx)
	defer iter.Close()

	cancel()
	if _, _, err := iter.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCreate_StateTransitions(t *testing.T) {
	var seen State
	var sub *subscription[int]
	s := Create(func(_ context.Context, e Emitter[int]) (func(), error) {
		sub = e.(emitter[int]).sub
		seen = sub.State()
		e.Complete()
		if e.Next(1) {
			t.Error("Next after Complete should be rejected")
		}
		return nil, nil
	})

	if _, err := Collect(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	if seen != StateStarted {
		t.Errorf("state during subscribe = %v, want started", seen)
	}
	if st := sub.State(); st != StateCompleted {
		t.Errorf("final state = %v, want completed", st)
	}
}

func TestCreate_ConcurrentProducers(t *testing.T) {
	const producers, each = 8, 50
	s := Create(func(_ context.Context, e Emitter[int]) (func(), error) {
		var wg sync.WaitGroup
		wg.Add(producers)
		for p := 0; p < producers; p++ {
			go func() {
				defer wg.Done()
				for i := 0; i < each; i++ {
					e.Next(i)
				}
			}()
		}
		go func() {
			wg.Wait()
			e.Complete()
		}()
		return nil, nil
	})

	got, err := Collect(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != producers*each {
		t.Errorf("got %d values, want %d", len(got), producers*each)
	}
}

func TestCreate_EachSubscriptionIsIndependent(t *testing.T) {
	var calls atomic.Int32
	s := Create(func(_ context.Context, e Emitter[int32]) (func(), error) {
		e.Next(calls.Add(1))
		e.Complete()
		return nil, nil
	})

	a, _ := First(context.Background(), s)
	b, _ := First(context.Background(), s)
	if a == b {
		t.Errorf("expected independent subscriptions, both saw %d", a)
	}
}
