package resilience

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows requests to pass through.
	StateClosed State = iota
	// StateOpen blocks all requests.
	StateOpen
	// StateHalfOpen allows limited requests to test recovery.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies this circuit breaker in logs and callbacks.
	Name string
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration
	// HalfOpenMaxCalls is the number of probe calls allowed while half-open.
	HalfOpenMaxCalls int
	// IsFailure decides whether an error returned to Execute counts as a
	// failure. Defaults to err != nil.
	IsFailure func(err error) bool
	// OnStateChange is called when state changes.
	OnStateChange func(name string, from, to State)
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// Counts is a snapshot of the breaker's counters.
type Counts struct {
	Requests            int
	ConsecutiveFailures int
	ProbeSuccesses      int
}

// CircuitBreaker fails fast once an upstream has failed MaxFailures times in
// a row. After Timeout it lets HalfOpenMaxCalls probes through; their
// success closes the circuit and any failure reopens it.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	probes   int
	// generation changes on every transition so that results reported for
	// calls admitted in an earlier state are ignored.
	generation uint64
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{config: config}
}

// Execute runs fn through the breaker and returns its error, or
// ErrCircuitOpen without calling fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	done, err := cb.Allow()
	if err != nil {
		return err
	}
	err = fn()
	done(!cb.config.IsFailure(err))
	return err
}

// Allow admits one call. The returned function must be called exactly once
// with the outcome of the call.
func (cb *CircuitBreaker) Allow() (func(success bool), error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentState(time.Now()) {
	case StateOpen:
		return nil, ErrCircuitOpen
	case StateHalfOpen:
		if cb.probes >= cb.config.HalfOpenMaxCalls {
			return nil, ErrCircuitOpen
		}
		cb.probes++
	}
	cb.counts.Requests++

	gen := cb.generation
	var once sync.Once
	return func(success bool) {
		once.Do(func() { cb.report(gen, success) })
	}, nil
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState(time.Now())
}

// Counts returns a snapshot of the counters for the current state.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

// Failures returns the number of consecutive failures.
func (cb *CircuitBreaker) Failures() int {
	return cb.Counts().ConsecutiveFailures
}

// Reset closes the circuit and clears all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(StateClosed)
	cb.counts = Counts{}
}

func (cb *CircuitBreaker) report(gen uint64, success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	state := cb.currentState(now)
	if gen != cb.generation {
		return
	}

	if success {
		cb.counts.ConsecutiveFailures = 0
		if state == StateHalfOpen {
			cb.counts.ProbeSuccesses++
			if cb.counts.ProbeSuccesses >= cb.config.HalfOpenMaxCalls {
				cb.setState(StateClosed)
			}
		}
		return
	}

	cb.counts.ConsecutiveFailures++
	switch state {
	case StateClosed:
		if cb.counts.ConsecutiveFailures >= cb.config.MaxFailures {
			cb.open(now)
		}
	case StateHalfOpen:
		cb.open(now)
	}
}

// currentState moves an open circuit to half-open once Timeout has passed.
func (cb *CircuitBreaker) currentState(now time.Time) State {
	if cb.state == StateOpen && now.Sub(cb.openedAt) >= cb.config.Timeout {
		cb.setState(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) open(now time.Time) {
	cb.openedAt = now
	cb.setState(StateOpen)
}

func (cb *CircuitBreaker) setState(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.generation++
	cb.probes = 0
	failures := cb.counts.ConsecutiveFailures
	cb.counts = Counts{}
	if to == StateOpen {
		cb.counts.ConsecutiveFailures = failures
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
