package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a request would have to wait longer than
// the limiter allows.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiterConfig configures a rate limiter.
type RateLimiterConfig struct {
	// Name identifies this rate limiter in logs and callbacks.
	Name string
	// Rate is the number of requests allowed per second.
	Rate float64
	// Burst is the maximum burst size.
	Burst int
	// MaxWait bounds how long Wait blocks. 0 waits as long as the context allows.
	MaxWait time.Duration
	// OnLimit is called when a request has to wait or is rejected.
	OnLimit func(name string)
}

// DefaultRateLimiterConfig returns sensible defaults.
func DefaultRateLimiterConfig(name string) RateLimiterConfig {
	return RateLimiterConfig{
		Name:  name,
		Rate:  10.0,
		Burst: 20,
	}
}

// RateLimiter is a token bucket. Waiting callers reserve their tokens up
// front so they are served in arrival order.
type RateLimiter struct {
	config RateLimiterConfig

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a new rate limiter with a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 10.0
	}
	if config.Burst <= 0 {
		config.Burst = max(int(config.Rate), 1)
	}
	return &RateLimiter{
		config:     config,
		tokens:     float64(config.Burst),
		lastRefill: time.Now(),
	}
}

// Allow reports whether a request may proceed now, consuming a token if so.
func (rl *RateLimiter) Allow() bool {
	return rl.AllowN(1)
}

// AllowN reports whether n requests may proceed now.
func (rl *RateLimiter) AllowN(n int) bool {
	rl.mu.Lock()
	rl.refill(time.Now())
	ok := rl.tokens >= float64(n)
	if ok {
		rl.tokens -= float64(n)
	}
	rl.mu.Unlock()

	if !ok {
		rl.limited()
	}
	return ok
}

// Wait blocks until a request may proceed, ctx is done, or MaxWait would be
// exceeded, in which case it returns ErrRateLimited without consuming a token.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.WaitN(ctx, 1)
}

// WaitN is Wait for n tokens.
func (rl *RateLimiter) WaitN(ctx context.Context, n int) error {
	delay, err := rl.reserve(n)
	if err != nil {
		rl.limited()
		return err
	}
	if delay <= 0 {
		return nil
	}
	rl.limited()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		rl.cancelReservation(n)
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Tokens returns the number of tokens currently available. It is negative
// while waiters hold reservations.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill(time.Now())
	return rl.tokens
}

// Rate returns the rate limit (requests per second).
func (rl *RateLimiter) Rate() float64 {
	return rl.config.Rate
}

// Burst returns the burst size.
func (rl *RateLimiter) Burst() int {
	return rl.config.Burst
}

// reserve takes n tokens and returns how long the caller must wait for them.
func (rl *RateLimiter) reserve(n int) (time.Duration, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill(time.Now())
	missing := float64(n) - rl.tokens
	var delay time.Duration
	if missing > 0 {
		delay = time.Duration(missing / rl.config.Rate * float64(time.Second))
	}
	if rl.config.MaxWait > 0 && delay > rl.config.MaxWait {
		return 0, ErrRateLimited
	}
	rl.tokens -= float64(n)
	return delay, nil
}

func (rl *RateLimiter) cancelReservation(n int) {
	rl.mu.Lock()
	rl.tokens = min(rl.tokens+float64(n), float64(rl.config.Burst))
	rl.mu.Unlock()
}

func (rl *RateLimiter) refill(now time.Time) {
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.lastRefill = now
	rl.tokens = min(rl.tokens+elapsed*rl.config.Rate, float64(rl.config.Burst))
}

func (rl *RateLimiter) limited() {
	if rl.config.OnLimit != nil {
		rl.config.OnLimit(rl.config.Name)
	}
}
