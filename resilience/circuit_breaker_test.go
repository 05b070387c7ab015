package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

var errFail = errors.New("fail")

func trip(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_ = cb.Execute(func() error { return errFail })
	}
}

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"))
	if cb.State() != StateClosed {
		t.Errorf("expected StateClosed, got %s", cb.State())
	}
	called := false
	if err := cb.Execute(func() error { called = true; return nil }); err != nil || !called {
		t.Errorf("Execute() error = %v, called = %v", err, called)
	}
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", MaxFailures: 3, Timeout: time.Hour})

	trip(cb, 2)
	_ = cb.Execute(func() error { return nil })
	trip(cb, 2)
	if cb.State() != StateClosed {
		t.Fatalf("a success should reset the failure streak, state = %s", cb.State())
	}

	trip(cb, 1)
	if cb.State() != StateOpen {
		t.Fatalf("expected StateOpen, got %s", cb.State())
	}
	err := cb.Execute(func() error {
		t.Error("fn should not run while open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_HalfOpenProbes(t *testing.T) {
	tests := []struct {
		name  string
		probe error
		want  State
	}{
		{"success closes", nil, StateClosed},
		{"failure reopens", errFail, StateOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewCircuitBreaker(CircuitBreakerConfig{
				Name:             "test",
				MaxFailures:      1,
				Timeout:          10 * time.Millisecond,
				HalfOpenMaxCalls: 1,
			})
			trip(cb, 1)
			time.Sleep(15 * time.Millisecond)
			if cb.State() != StateHalfOpen {
				t.Fatalf("expected StateHalfOpen, got %s", cb.State())
			}

			done, err := cb.Allow()
			if err != nil {
				t.Fatalf("probe rejected: %v", err)
			}
			if _, err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
				t.Errorf("second probe should be rejected, got %v", err)
			}
			done(tt.probe == nil)
			if cb.State() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, cb.State())
			}
		})
	}
}

func TestCircuitBreaker_IsFailure(t *testing.T) {
	ignored := errors.New("not found")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:        "test",
		MaxFailures: 1,
		Timeout:     time.Hour,
		IsFailure:   func(err error) bool { return err != nil && !errors.Is(err, ignored) },
	})

	if err := cb.Execute(func() error { return ignored }); !errors.Is(err, ignored) {
		t.Errorf("Execute() should return fn error, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("ignored error must not open the circuit, state = %s", cb.State())
	}
}

func TestCircuitBreaker_StaleReportIgnored(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", MaxFailures: 1, Timeout: time.Hour})

	done, err := cb.Allow()
	if err != nil {
		t.Fatal(err)
	}
	trip(cb, 1)
	cb.Reset()
	done(false)
	done(false)

	if cb.State() != StateClosed || cb.Failures() != 0 {
		t.Errorf("report from before Reset should be ignored: state=%s failures=%d", cb.State(), cb.Failures())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", MaxFailures: 1, Timeout: time.Hour})
	trip(cb, 1)
	if cb.State() != StateOpen {
		t.Fatalf("expected StateOpen, got %s", cb.State())
	}
	cb.Reset()
	if cb.State() != StateClosed {
		t.Errorf("expected StateClosed after reset, got %s", cb.State())
	}
	if c := cb.Counts(); c != (Counts{}) {
		t.Errorf("expected zero counts after reset, got %+v", c)
	}
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var (
		mu      sync.Mutex
		changes [][2]State
	)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:        "test",
		MaxFailures: 1,
		Timeout:     10 * time.Millisecond,
		OnStateChange: func(name string, from, to State) {
			mu.Lock()
			changes = append(changes, [2]State{from, to})
			mu.Unlock()
		},
	})

	trip(cb, 1)
	time.Sleep(15 * time.Millisecond)
	_ = cb.Execute(func() error { return nil })

	mu.Lock()
	defer mu.Unlock()
	want := [][2]State{{StateClosed, StateOpen}, {StateOpen, StateHalfOpen}, {StateHalfOpen, StateClosed}}
	if len(changes) != len(want) {
		t.Fatalf("got %d state changes, want %d: %v", len(changes), len(want), changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d = %s->%s, want %s->%s", i, changes[i][0], changes[i][1], want[i][0], want[i][1])
		}
	}
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cb.Execute(func() error { return nil })
			_ = cb.State()
			_ = cb.Counts()
		}()
	}
	wg.Wait()

	if cb.State() != StateClosed {
		t.Errorf("expected StateClosed, got %s", cb.State())
	}
	if got := cb.Counts().Requests; got != 100 {
		t.Errorf("expected 100 requests counted, got %d", got)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}
