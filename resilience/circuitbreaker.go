// Package resilience provides backoff schedules (constant, linear,
// exponential), the per-(profile,use-case,provider) failure policies
// (Abort, SimpleRetry, CircuitBreakerPolicy) whose beforeExecute/
// afterSuccess/afterFailure state machines the failure-policy router
// drives, and a standalone, directly callable CircuitBreaker that is
// separate from those policies.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is a circuit breaker's current state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// ErrCircuitOpen is returned by Execute when the breaker is open and the
// reset timeout has not yet elapsed.
var ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

const (
	defaultFailureThreshold = 5
	defaultResetTimeout     = 30 * time.Second
)

// CircuitBreaker is a generic closed/open/half-open circuit breaker guarding
// an arbitrary operation. It is safe for concurrent use.
type CircuitBreaker struct {
	failureThreshold int
	resetTimeout     time.Duration

	mu          sync.Mutex
	state       State
	failures    int
	openSince   time.Time
}

// NewCircuitBreaker creates a CircuitBreaker that opens after
// failureThreshold consecutive failures and attempts a half-open probe after
// resetTimeout has elapsed. A zero failureThreshold defaults to 5; a zero
// resetTimeout defaults to 30s.
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	if failureThreshold == 0 {
		failureThreshold = defaultFailureThreshold
	}
	if resetTimeout == 0 {
		resetTimeout = defaultResetTimeout
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		state:            StateClosed,
	}
}

// State returns the breaker's current state, lazily transitioning from open
// to half-open if resetTimeout has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked()
}

func (cb *CircuitBreaker) stateLocked() State {
	if cb.state == StateOpen && time.Since(cb.openSince) >= cb.resetTimeout {
		cb.state = StateHalfOpen
	}
	return cb.state
}

// Execute runs fn if the breaker allows it, recording the outcome. It
// returns ErrCircuitOpen without calling fn when the breaker is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	cb.mu.Lock()
	state := cb.stateLocked()
	if state == StateOpen {
		cb.mu.Unlock()
		return nil, ErrCircuitOpen
	}
	cb.mu.Unlock()

	result, err := fn(ctx)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.recordFailureLocked()
	} else {
		cb.recordSuccessLocked()
	}
	return result, err
}

func (cb *CircuitBreaker) recordFailureLocked() {
	switch cb.state {
	case StateHalfOpen:
		cb.state = StateOpen
		cb.openSince = time.Now()
		cb.failures = 0
	default:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.state = StateOpen
			cb.openSince = time.Now()
			cb.failures = 0
		}
	}
}

func (cb *CircuitBreaker) recordSuccessLocked() {
	cb.state = StateClosed
	cb.failures = 0
}

// Reset forces the breaker back to closed with a clean failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
	cb.openSince = time.Time{}
}
