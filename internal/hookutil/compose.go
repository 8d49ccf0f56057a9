// Package hookutil composes slices of optional hook fields into a single
// callable, so a caller with N registered observers (core.App's AppHooks is
// the only consumer in this module) doesn't have to loop over nil checks
// itself. Each helper takes a slice of hook structs and a field-extractor
// function and returns one function that walks every non-nil hook in
// registration order.
//
// Two shapes are needed:
//
//   - Void hooks (ComposeVoidN) are fire-and-forget notifications; every
//     non-nil hook runs, in order, and the composed function returns
//     nothing.
//   - ComposeErrorPassthrough handles the one error-hook shape App
//     actually has: OnComponentError may inspect and replace a failure
//     before it is returned to the caller, but if every hook declines
//     (returns nil) the original error passes through unchanged.
//
// This trades compile-time specificity for a single small package instead
// of one bespoke dispatch loop per hook field; the event bus (eventbus.Bus)
// solves a related but different problem — priority-ordered, abortable
// pre/post dispatch with control tokens — and is not built on top of this
// package.
package hookutil

import "context"

// ComposeErrorPassthrough composes hooks of the form func(context.Context, error) error.
// Each non-nil hook is called in order. The first hook that returns a non-nil
// error short-circuits and that error is returned. If all hooks return nil the
// original error is returned unchanged (passthrough semantics).
func ComposeErrorPassthrough[H any](hooks []H, get func(H) func(context.Context, error) error) func(context.Context, error) error {
	return func(ctx context.Context, err error) error {
		for _, h := range hooks {
			if fn := get(h); fn != nil {
				if e := fn(ctx, err); e != nil {
					return e
				}
			}
		}
		return err
	}
}

// ComposeVoid0 composes void hooks of the form func(context.Context).
// All non-nil hooks are called in order unconditionally.
func ComposeVoid0[H any](hooks []H, get func(H) func(context.Context)) func(context.Context) {
	return func(ctx context.Context) {
		for _, h := range hooks {
			if fn := get(h); fn != nil {
				fn(ctx)
			}
		}
	}
}

// ComposeVoid1 composes void hooks of the form func(context.Context, A).
// All non-nil hooks are called in order unconditionally.
func ComposeVoid1[H, A any](hooks []H, get func(H) func(context.Context, A)) func(context.Context, A) {
	return func(ctx context.Context, a A) {
		for _, h := range hooks {
			if fn := get(h); fn != nil {
				fn(ctx, a)
			}
		}
	}
}

// ComposeVoid2 composes void hooks of the form func(context.Context, A, B).
// All non-nil hooks are called in order unconditionally.
func ComposeVoid2[H, A, B any](hooks []H, get func(H) func(context.Context, A, B)) func(context.Context, A, B) {
	return func(ctx context.Context, a A, b B) {
		for _, h := range hooks {
			if fn := get(h); fn != nil {
				fn(ctx, a, b)
			}
		}
	}
}
