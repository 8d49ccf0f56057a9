// Package eventbus implements the single-threaded (per owning instance)
// typed pub/sub dispatcher that wraps pipeline stages with before/after
// hooks. Listeners return a control token deciding whether a call proceeds,
// is short-circuited, or is retried; the bus composes them the way
// internal/hookutil composes simpler void/error hook chains, but adds the
// event-specific control-token semantics the pipeline stages need.
package eventbus

import (
	"context"
	"sort"
	"sync"
)

// Name identifies a pipeline event.
type Name string

const (
	PrePerform  Name = "pre-perform"
	PostPerform Name = "post-perform"
	PreFetch    Name = "pre-fetch"
	PostFetch   Name = "post-fetch"
)

// PreAction is the control token a pre-hook returns.
type PreAction int

const (
	PreContinue PreAction = iota
	PreModify
	PreAbort
)

// PreResult is returned by a PreHook.
type PreResult struct {
	Action PreAction
	Args   any // set when Action == PreModify
	Result any // set when Action == PreAbort
}

// PostAction is the control token a post-hook returns.
type PostAction int

const (
	PostContinue PostAction = iota
	PostModify
	PostRetry
)

// PostResult is returned by a PostHook.
type PostResult struct {
	Action PostAction
	Result any // set when Action == PostModify
	Args   any // optionally set when Action == PostRetry; nil means reuse current args
}

// PreHook observes or intercepts the arguments before a wrapped call.
type PreHook func(ctx context.Context, event Name, args any) PreResult

// PostHook observes or intercepts the outcome after a wrapped call.
type PostHook func(ctx context.Context, event Name, args any, result any, err error) PostResult

// Filter restricts a listener to events matching a specific profile and/or
// use-case context. An empty field matches anything.
type Filter struct {
	Profile string
	UseCase string
}

func (f *Filter) matches(profile, useCase string) bool {
	if f == nil {
		return true
	}
	if f.Profile != "" && f.Profile != profile {
		return false
	}
	if f.UseCase != "" && f.UseCase != useCase {
		return false
	}
	return true
}

// Placement controls which phases a registered hook pair participates in.
type Placement int

const (
	// Before registers a pre-hook only.
	Before Placement = iota
	// After registers a post-hook only.
	After
	// Around registers both phases as a single unit wrapping the call.
	Around
)

type listener struct {
	priority int
	seq      int
	filter   *Filter
	pre      PreHook
	post     PostHook
}

// Bus is a single-threaded typed dispatcher. It is safe to register
// listeners concurrently with in-flight Wrap calls: the listener slice for
// an event is copy-on-write at registration time, so an emit in progress
// always sees the snapshot it started with.
type Bus struct {
	mu        sync.Mutex
	listeners map[Name][]listener
	nextSeq   int
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{listeners: make(map[Name][]listener)}
}

// On registers a listener for event. priority determines dispatch order
// (lower runs first); ties resolve by insertion order. filter may be nil to
// match every (profile, useCase) context. Placement determines which of pre
// and post are actually invoked; pass nil for the hook not used by
// placement.
func (b *Bus) On(event Name, placement Placement, priority int, filter *Filter, pre PreHook, post PostHook) {
	switch placement {
	case Before:
		post = nil
	case After:
		pre = nil
	case Around:
		// both kept
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	l := listener{priority: priority, seq: b.nextSeq, filter: filter, pre: pre, post: post}
	b.nextSeq++

	existing := b.listeners[event]
	updated := make([]listener, len(existing), len(existing)+1)
	copy(updated, existing)
	updated = append(updated, l)
	sort.SliceStable(updated, func(i, j int) bool {
		if updated[i].priority != updated[j].priority {
			return updated[i].priority < updated[j].priority
		}
		return updated[i].seq < updated[j].seq
	})
	b.listeners[event] = updated
}

func (b *Bus) snapshot(event Name, profile, useCase string) []listener {
	b.mu.Lock()
	all := b.listeners[event]
	b.mu.Unlock()

	matched := make([]listener, 0, len(all))
	for _, l := range all {
		if l.filter.matches(profile, useCase) {
			matched = append(matched, l)
		}
	}
	return matched
}

// Wrap runs fn under this bus's pre/post hook chain for event, within the
// (profile, useCase) filter context. The pre chain accumulates argument
// modifications and short-circuits on the first abort, skipping fn entirely.
// The post chain short-circuits on modify; on retry, fn is re-invoked with
// the returned (or unchanged) args and the post chain runs again from the
// top. maxRetries bounds a runaway retry loop (a policy that always returns
// retry is a policy bug, not a bus concern, but the bus still refuses to
// spin forever).
func (b *Bus) Wrap(ctx context.Context, event Name, profile, useCase string, args any, maxRetries int, fn func(context.Context, any) (any, error)) (any, error) {
	listeners := b.snapshot(event, profile, useCase)
	currentArgs := args

	for attempt := 0; ; attempt++ {
		aborted, abortResult := b.runPre(ctx, event, listeners, &currentArgs)
		if aborted {
			return abortResult, nil
		}

		result, err := fn(ctx, currentArgs)

		finalResult, retry, nextArgs := b.runPost(ctx, event, listeners, currentArgs, result, err)
		if !retry {
			return finalResult, err
		}
		if attempt >= maxRetries {
			return finalResult, err
		}
		if nextArgs != nil {
			currentArgs = nextArgs
		}
	}
}

// runPre invokes the pre phase of listeners in order, mutating *args in
// place as PreModify results accumulate. It returns (true, abortResult) if a
// listener aborted the call.
func (b *Bus) runPre(ctx context.Context, event Name, listeners []listener, args *any) (aborted bool, abortResult any) {
	for _, l := range listeners {
		if l.pre == nil {
			continue
		}
		res := l.pre(ctx, event, *args)
		switch res.Action {
		case PreModify:
			*args = res.Args
		case PreAbort:
			return true, res.Result
		}
	}
	return false, nil
}

// runPost invokes the post phase of listeners in order. It returns the
// result to surface, whether the caller should retry fn, and (if set) the
// args to retry with.
func (b *Bus) runPost(ctx context.Context, event Name, listeners []listener, args, result any, err error) (finalResult any, retry bool, retryArgs any) {
	finalResult = result
	for _, l := range listeners {
		if l.post == nil {
			continue
		}
		res := l.post(ctx, event, args, finalResult, err)
		switch res.Action {
		case PostModify:
			return res.Result, false, nil
		case PostRetry:
			return finalResult, true, res.Args
		}
	}
	return finalResult, false, nil
}
