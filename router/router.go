// Package router implements the per-(profile, use-case) failure-policy
// router: it multiplexes per-provider failure policies, applying backoff
// sleeps and failing over across providers in priority order, so the
// use-case executor never has to know the retry/failover mechanics of
// whichever policy a provider is configured with.
package router

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/superfaceai/one-sdk-go/core"
	"github.com/superfaceai/one-sdk-go/resilience"
)

// ProviderId is an opaque provider name, matching manifest.ProviderId.
type ProviderId string

// AttemptFunc performs one HTTP-bound execution attempt against provider,
// bounded by timeout. Perform classifies its error, if any: configuration,
// bind and validation errors bypass the provider's policy (failover, when
// allowed, still moves on to the next provider), and every other error is
// handed to the policy's AfterFailure.
type AttemptFunc func(ctx context.Context, provider ProviderId, timeout time.Duration) (any, error)

// PolicyFactory constructs the FailurePolicy for one provider, based on that
// provider's normalized retry policy.
type PolicyFactory func(ProviderId) resilience.FailurePolicy

// Router owns policy instances for one (profile, use-case) and coordinates
// retries and failover across providers in priority order.
type Router struct {
	policyFactory PolicyFactory

	mu              sync.Mutex
	priority        []ProviderId
	policies        map[ProviderId]resilience.FailurePolicy
	currentProvider ProviderId
	hasCurrent      bool
	allowFailover   bool
}

// New returns a Router visiting providers in the given priority order,
// materializing each provider's policy lazily via factory on first use.
func New(priority []ProviderId, factory PolicyFactory) *Router {
	return &Router{
		policyFactory: factory,
		priority:      priority,
		policies:      make(map[ProviderId]resilience.FailurePolicy),
	}
}

// SetAllowFailover enables or disables failover for the next Perform call.
// The executor disables it when the caller pins an explicit provider.
func (r *Router) SetAllowFailover(allow bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allowFailover = allow
}

// CurrentProvider returns the provider used by the most recent Perform call,
// if any.
func (r *Router) CurrentProvider() (ProviderId, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentProvider, r.hasCurrent
}

func (r *Router) policyFor(id ProviderId) resilience.FailurePolicy {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.policies[id]
	if !ok {
		p = r.policyFactory(id)
		r.policies[id] = p
	}
	return p
}

func (r *Router) setCurrent(id ProviderId) {
	r.mu.Lock()
	r.currentProvider = id
	r.hasCurrent = true
	r.mu.Unlock()
}

// nextUnvisited returns the first provider in priority order, strictly after
// from, that is not in visited.
func (r *Router) nextUnvisited(from ProviderId, visited map[ProviderId]bool) (ProviderId, bool) {
	idx := -1
	for i, id := range r.priority {
		if id == from {
			idx = i
			break
		}
	}
	for i := idx + 1; i < len(r.priority); i++ {
		if !visited[r.priority[i]] {
			return r.priority[i], true
		}
	}
	// from wasn't found in priority (e.g. an explicitly pinned provider not
	// listed there): fall back to the first unvisited entry.
	if idx == -1 {
		for _, id := range r.priority {
			if !visited[id] {
				return id, true
			}
		}
	}
	return "", false
}

// Perform runs the failure-policy protocol for a single top-level perform
// call: it asks the current provider's policy for permission, sleeps for any
// backoff, invokes attempt, and on failure either retries the same provider
// or fails over to the next one in priority order, per the policy's
// afterFailure decision.
//
// explicitProvider, when non-nil, pins the initial provider and — combined
// with a prior SetAllowFailover(false) — disables failover for this call.
func (r *Router) Perform(ctx context.Context, explicitProvider *ProviderId, attempt AttemptFunc) (any, error) {
	provider, ok := r.initialProvider(explicitProvider)
	if !ok {
		return nil, core.NewPolicyAbort("perform", "no providers remaining")
	}

	visited := make(map[ProviderId]bool)

	for {
		policy := r.policyFor(provider)
		before := policy.BeforeExecute()

		switch before.Action {
		case resilience.BeforeAbort:
			visited[provider] = true
			next, hasNext := r.failoverTarget(provider, visited)
			if hasNext {
				provider = next
				r.setCurrent(provider)
				continue
			}
			return nil, core.NewPolicyAbort("perform", before.Reason)

		case resilience.BeforeBackoff:
			if err := sleepCancellable(ctx, before.Delay); err != nil {
				return nil, err
			}
		}

		if ctx.Err() != nil {
			return nil, core.NewCancelled("perform", ctx.Err())
		}

		result, err := attempt(ctx, provider, before.RequestTimeout)
		if err == nil {
			policy.AfterSuccess()
			return result, nil
		}
		if isHardFailure(err) {
			// Configuration, bind, and validation failures are never put to a
			// policy: they are properties of this provider's setup, not its
			// availability. Failover may still move past a misconfigured
			// provider to the next one; there is simply no retry-in-place.
			visited[provider] = true
			next, hasNext := r.failoverTarget(provider, visited)
			if hasNext {
				provider = next
				r.setCurrent(provider)
				continue
			}
			return nil, err
		}

		after := policy.AfterFailure()
		switch after.Action {
		case resilience.AfterRetry:
			continue
		default: // AfterAbort
			visited[provider] = true
			next, hasNext := r.failoverTarget(provider, visited)
			if hasNext {
				provider = next
				r.setCurrent(provider)
				continue
			}
			return nil, core.NewPolicyAbort("perform", after.Reason)
		}
	}
}

func (r *Router) initialProvider(explicitProvider *ProviderId) (ProviderId, bool) {
	if explicitProvider != nil {
		r.setCurrent(*explicitProvider)
		return *explicitProvider, true
	}
	if id, ok := r.CurrentProvider(); ok {
		return id, true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.priority) == 0 {
		return "", false
	}
	return r.priority[0], true
}

func (r *Router) failoverTarget(current ProviderId, visited map[ProviderId]bool) (ProviderId, bool) {
	r.mu.Lock()
	allow := r.allowFailover
	r.mu.Unlock()
	if !allow {
		return "", false
	}
	return r.nextUnvisited(current, visited)
}

// isHardFailure reports whether err belongs to one of the error categories
// that must bypass the failure policy entirely: a misconfigured document, a
// failed binding, or input/result the validator rejected. None of these are
// something a retry or a different provider's policy can fix, so Perform
// returns them directly instead of asking the current policy to judge them.
func isHardFailure(err error) bool {
	var e *core.Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Code {
	case core.ErrConfiguration, core.ErrBind, core.ErrInputValidation, core.ErrResultValidation:
		return true
	default:
		return false
	}
}

// sleepCancellable waits for delay, returning a *core.Error with code
// ErrCancelled if ctx is done first.
func sleepCancellable(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return core.NewCancelled("perform", ctx.Err())
	case <-timer.C:
		return nil
	}
}
