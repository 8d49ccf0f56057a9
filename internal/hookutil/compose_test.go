package hookutil_test

import (
	"context"
	"errors"
	"testing"

	"github.com/superfaceai/one-sdk-go/internal/hookutil"
)

// testHook is a simple hook struct used across tests.
type testHook struct {
	onErr func(context.Context, error) error
	v0    func(context.Context)
	v1    func(context.Context, string)
	v2    func(context.Context, string, int)
}

var ctx = context.Background()

// ---- ComposeErrorPassthrough ----

func TestComposeErrorPassthrough_NoHooks(t *testing.T) {
	fn := hookutil.ComposeErrorPassthrough([]testHook{}, func(h testHook) func(context.Context, error) error { return h.onErr })
	sentinel := errors.New("original")
	if got := fn(ctx, sentinel); got != sentinel {
		t.Fatalf("expected original error, got %v", got)
	}
}

func TestComposeErrorPassthrough_NilField(t *testing.T) {
	hooks := []testHook{{onErr: nil}}
	fn := hookutil.ComposeErrorPassthrough(hooks, func(h testHook) func(context.Context, error) error { return h.onErr })
	sentinel := errors.New("original")
	if got := fn(ctx, sentinel); got != sentinel {
		t.Fatalf("expected original error, got %v", got)
	}
}

func TestComposeErrorPassthrough_HookReturnsNil(t *testing.T) {
	hooks := []testHook{{onErr: func(_ context.Context, _ error) error { return nil }}}
	fn := hookutil.ComposeErrorPassthrough(hooks, func(h testHook) func(context.Context, error) error { return h.onErr })
	sentinel := errors.New("original")
	if got := fn(ctx, sentinel); got != sentinel {
		t.Fatalf("expected original error passthrough, got %v", got)
	}
}

func TestComposeErrorPassthrough_HookReplacesError(t *testing.T) {
	replacement := errors.New("replaced")
	hooks := []testHook{{onErr: func(_ context.Context, _ error) error { return replacement }}}
	fn := hookutil.ComposeErrorPassthrough(hooks, func(h testHook) func(context.Context, error) error { return h.onErr })
	if got := fn(ctx, errors.New("original")); got != replacement {
		t.Fatalf("expected replaced error, got %v", got)
	}
}

func TestComposeErrorPassthrough_ShortCircuitsOnFirstNonNil(t *testing.T) {
	calls := 0
	first := errors.New("first")
	hooks := []testHook{
		{onErr: func(_ context.Context, _ error) error { calls++; return first }},
		{onErr: func(_ context.Context, _ error) error { calls++; return errors.New("second") }},
	}
	fn := hookutil.ComposeErrorPassthrough(hooks, func(h testHook) func(context.Context, error) error { return h.onErr })
	if got := fn(ctx, errors.New("original")); got != first {
		t.Fatalf("expected first error, got %v", got)
	}
	if calls != 1 {
		t.Fatalf("expected 1 hook call, got %d", calls)
	}
}

// ---- ComposeVoid0 ----

func TestComposeVoid0_SkipsNil(t *testing.T) {
	calls := 0
	hooks := []testHook{
		{v0: nil},
		{v0: func(_ context.Context) { calls++ }},
	}
	fn := hookutil.ComposeVoid0(hooks, func(h testHook) func(context.Context) { return h.v0 })
	fn(ctx)
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

// ---- ComposeVoid1 ----

func TestComposeVoid1_CallsAll(t *testing.T) {
	var got []string
	hooks := []testHook{
		{v1: func(_ context.Context, s string) { got = append(got, "a:"+s) }},
		{v1: func(_ context.Context, s string) { got = append(got, "b:"+s) }},
	}
	fn := hookutil.ComposeVoid1(hooks, func(h testHook) func(context.Context, string) { return h.v1 })
	fn(ctx, "q")
	if len(got) != 2 || got[0] != "a:q" || got[1] != "b:q" {
		t.Fatalf("unexpected calls: %v", got)
	}
}

// ---- ComposeVoid2 ----

func TestComposeVoid2_CallsAll(t *testing.T) {
	calls := 0
	hooks := []testHook{
		{v2: func(_ context.Context, _ string, _ int) { calls++ }},
		{v2: func(_ context.Context, _ string, _ int) { calls++ }},
	}
	fn := hookutil.ComposeVoid2(hooks, func(h testHook) func(context.Context, string, int) { return h.v2 })
	fn(ctx, "s", 1)
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}
