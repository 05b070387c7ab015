// Package resilience protects a session's transport from overload.
//
//   - CircuitBreaker fails fast while an upstream keeps failing. Allow
//     splits a call into admit and report so long transfers can be judged
//     after their body has been read.
//   - RateLimiter spaces requests with a token bucket.
//   - Bulkhead caps the number of transfers in flight.
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("api"))
//	done, err := cb.Allow()
//	if err != nil {
//	    return err // resilience.ErrCircuitOpen
//	}
//	resp, err := client.Do(req)
//	done(err == nil && resp.StatusCode < 500)
package resilience
