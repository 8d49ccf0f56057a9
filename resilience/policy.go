package resilience

import (
	"sync"
	"time"
)

// BeforeAction is the decision a FailurePolicy makes before an attempt.
type BeforeAction int

const (
	// BeforeContinue allows the attempt to proceed immediately.
	BeforeContinue BeforeAction = iota
	// BeforeBackoff allows the attempt to proceed after Delay has elapsed.
	BeforeBackoff
	// BeforeAbort refuses the attempt; Reason explains why.
	BeforeAbort
)

// BeforeResult is returned by FailurePolicy.BeforeExecute.
type BeforeResult struct {
	Action         BeforeAction
	Delay          time.Duration
	RequestTimeout time.Duration
	Reason         string
}

// AfterAction is the decision a FailurePolicy makes once an attempt fails.
type AfterAction int

const (
	// AfterRetry instructs the caller to attempt again.
	AfterRetry AfterAction = iota
	// AfterAbort instructs the caller to give up; Reason explains why.
	AfterAbort
)

// AfterResult is returned by FailurePolicy.AfterFailure.
type AfterResult struct {
	Action AfterAction
	Reason string
}

// FailurePolicy is a per-(profile, use-case, provider) state machine that
// decides whether to continue, back off, retry, or abort around a single
// execution attempt. Implementations must be safe for concurrent use: the
// same policy instance is shared across concurrent perform calls for the
// same (profile, useCase, provider) and may be mutated under cooperative
// interleaving.
type FailurePolicy interface {
	BeforeExecute() BeforeResult
	AfterSuccess()
	AfterFailure() AfterResult
	Reset()
}

// AbortPolicy never retries: the first failure is terminal.
type AbortPolicy struct {
	requestTimeout time.Duration
}

// NewAbortPolicy returns a FailurePolicy that aborts on the first failure.
func NewAbortPolicy(requestTimeout time.Duration) *AbortPolicy {
	return &AbortPolicy{requestTimeout: requestTimeout}
}

func (p *AbortPolicy) BeforeExecute() BeforeResult {
	return BeforeResult{Action: BeforeContinue, RequestTimeout: p.requestTimeout}
}

func (p *AbortPolicy) AfterSuccess() {}

func (p *AbortPolicy) AfterFailure() AfterResult {
	return AfterResult{Action: AfterAbort, Reason: "retries disabled"}
}

func (p *AbortPolicy) Reset() {}

// SimpleRetryPolicy attempts maxContiguousRetries+1 executions with a
// constant zero delay between them.
type SimpleRetryPolicy struct {
	budget         int
	requestTimeout time.Duration

	mu   sync.Mutex
	used int
}

// NewSimpleRetryPolicy returns a FailurePolicy allowing maxContiguousRetries
// retries (maxContiguousRetries+1 total attempts) with no delay between them.
func NewSimpleRetryPolicy(maxContiguousRetries int, requestTimeout time.Duration) *SimpleRetryPolicy {
	return &SimpleRetryPolicy{budget: maxContiguousRetries + 1, requestTimeout: requestTimeout}
}

func (p *SimpleRetryPolicy) BeforeExecute() BeforeResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.used >= p.budget {
		return BeforeResult{Action: BeforeAbort, Reason: "max retries exhausted"}
	}
	p.used++
	return BeforeResult{Action: BeforeContinue, RequestTimeout: p.requestTimeout}
}

func (p *SimpleRetryPolicy) AfterSuccess() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.used = 0
}

func (p *SimpleRetryPolicy) AfterFailure() AfterResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.used >= p.budget {
		return AfterResult{Action: AfterAbort, Reason: "max retries exhausted"}
	}
	return AfterResult{Action: AfterRetry}
}

func (p *SimpleRetryPolicy) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.used = 0
}

// circuitState is the circuit breaker policy's internal state, distinct from
// [State] used by the standalone [CircuitBreaker] utility.
type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

// CircuitBreakerPolicy implements the closed/open/half-open state machine
// described in the failure-policies design: while closed it forwards calls,
// applying an advancing backoff after each observed failure; after
// maxContiguousRetries consecutive failures it opens for openTime; a
// half-open probe either closes the circuit or reopens it.
type CircuitBreakerPolicy struct {
	maxContiguousRetries int
	requestTimeout       time.Duration
	openTime             time.Duration
	backoff              Backoff

	mu        sync.Mutex
	state     circuitState
	failures  int
	openSince time.Time
}

// NewCircuitBreakerPolicy returns a FailurePolicy implementing the circuit
// breaker state machine. backoff supplies the advancing delay applied while
// closed following a prior failure.
func NewCircuitBreakerPolicy(maxContiguousRetries int, requestTimeout, openTime time.Duration, backoff Backoff) *CircuitBreakerPolicy {
	return &CircuitBreakerPolicy{
		maxContiguousRetries: maxContiguousRetries,
		requestTimeout:       requestTimeout,
		openTime:             openTime,
		backoff:              backoff,
		state:                circuitClosed,
	}
}

func (p *CircuitBreakerPolicy) BeforeExecute() BeforeResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == circuitOpen && time.Since(p.openSince) >= p.openTime {
		p.state = circuitHalfOpen
	}

	switch p.state {
	case circuitOpen:
		return BeforeResult{Action: BeforeAbort, Reason: "circuit breaker is open"}
	case circuitHalfOpen:
		return BeforeResult{Action: BeforeContinue, RequestTimeout: p.requestTimeout}
	default: // circuitClosed
		if p.failures == 0 {
			return BeforeResult{Action: BeforeContinue, RequestTimeout: p.requestTimeout}
		}
		return BeforeResult{Action: BeforeBackoff, Delay: p.backoff.Peek(), RequestTimeout: p.requestTimeout}
	}
}

func (p *CircuitBreakerPolicy) AfterSuccess() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = circuitClosed
	p.failures = 0
	p.backoff.Reset()
}

func (p *CircuitBreakerPolicy) AfterFailure() AfterResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case circuitHalfOpen:
		p.state = circuitOpen
		p.openSince = time.Now()
		p.backoff.Advance()
		return AfterResult{Action: AfterAbort, Reason: "circuit breaker is open"}
	default: // circuitClosed
		p.failures++
		p.backoff.Advance()
		if p.failures >= p.maxContiguousRetries {
			p.state = circuitOpen
			p.openSince = time.Now()
			return AfterResult{Action: AfterAbort, Reason: "circuit breaker is open"}
		}
		return AfterResult{Action: AfterRetry}
	}
}

func (p *CircuitBreakerPolicy) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = circuitClosed
	p.failures = 0
	p.openSince = time.Time{}
	p.backoff.Reset()
}
