package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestBulkhead_AcquireWithinLimit(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 2})

	r1, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	r2, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second Acquire() error = %v", err)
	}
	if b.InUse() != 2 || b.Available() != 0 {
		t.Errorf("InUse=%d Available=%d, want 2/0", b.InUse(), b.Available())
	}

	r1()
	r1()
	r2()
	if b.InUse() != 0 {
		t.Errorf("expected all slots released, %d in use", b.InUse())
	}
}

func TestBulkhead_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		maxWait time.Duration
		ctx     func() (context.Context, context.CancelFunc)
		want    error
	}{
		{"full", 0, func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) }, ErrBulkheadFull},
		{"timeout", 10 * time.Millisecond, func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) }, ErrBulkheadTimeout},
		{"context", time.Second, func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), 10*time.Millisecond)
		}, context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rejected int32
			b := NewBulkhead(BulkheadConfig{
				Name:          "test",
				MaxConcurrent: 1,
				MaxWait:       tt.maxWait,
				OnReject:      func(string) { atomic.AddInt32(&rejected, 1) },
			})
			release, err := b.Acquire(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			defer release()

			ctx, cancel := tt.ctx()
			defer cancel()
			called := false
			err = b.Execute(ctx, func() error {
				called = true
				return nil
			})
			if !errors.Is(err, tt.want) {
				t.Errorf("Execute() error = %v, want %v", err, tt.want)
			}
			if called {
				t.Error("fn must not run without a slot")
			}
			if atomic.LoadInt32(&rejected) != 1 {
				t.Errorf("expected one reject callback, got %d", rejected)
			}
		})
	}
}

func TestBulkhead_WaitsForSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 1, MaxWait: time.Second})
	release, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		release()
	}()

	start := time.Now()
	if err := b.Execute(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("expected to wait for the slot, waited %v", elapsed)
	}
	if b.InUse() != 0 {
		t.Errorf("expected slot released after Execute, %d in use", b.InUse())
	}
}

func TestBulkhead_ExecuteReturnsFnError(t *testing.T) {
	b := NewBulkhead(DefaultBulkheadConfig("test"))
	want := errors.New("boom")
	if err := b.Execute(context.Background(), func() error { return want }); !errors.Is(err, want) {
		t.Errorf("Execute() error = %v, want %v", err, want)
	}
	if b.MaxConcurrent() != 10 {
		t.Errorf("expected default of 10 slots, got %d", b.MaxConcurrent())
	}
}
