package eventbus

import (
	"context"
	"errors"
	"testing"
)

func TestWrap_NoListenersPassesThrough(t *testing.T) {
	b := New()
	result, err := b.Wrap(context.Background(), PrePerform, "p", "u", "args", 3, func(_ context.Context, a any) (any, error) {
		return a.(string) + "-done", nil
	})
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if result != "args-done" {
		t.Errorf("result = %v", result)
	}
}

func TestWrap_PreModifyAccumulates(t *testing.T) {
	b := New()
	b.On(PrePerform, Before, 0, nil, func(_ context.Context, _ Name, args any) PreResult {
		return PreResult{Action: PreModify, Args: args.(string) + "-a"}
	}, nil)
	b.On(PrePerform, Before, 1, nil, func(_ context.Context, _ Name, args any) PreResult {
		return PreResult{Action: PreModify, Args: args.(string) + "-b"}
	}, nil)

	result, _ := b.Wrap(context.Background(), PrePerform, "p", "u", "x", 0, func(_ context.Context, a any) (any, error) {
		return a, nil
	})
	if result != "x-a-b" {
		t.Errorf("result = %v, want x-a-b", result)
	}
}

func TestWrap_PreAbortSkipsCall(t *testing.T) {
	b := New()
	called := false
	b.On(PrePerform, Before, 0, nil, func(_ context.Context, _ Name, args any) PreResult {
		return PreResult{Action: PreAbort, Result: "aborted"}
	}, nil)

	result, err := b.Wrap(context.Background(), PrePerform, "p", "u", "x", 0, func(_ context.Context, a any) (any, error) {
		called = true
		return a, nil
	})
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if called {
		t.Error("fn was called despite abort")
	}
	if result != "aborted" {
		t.Errorf("result = %v, want aborted", result)
	}
}

func TestWrap_PostModifyShortCircuits(t *testing.T) {
	b := New()
	secondCalled := false
	b.On(PostPerform, After, 0, nil, nil, func(_ context.Context, _ Name, _ any, result any, _ error) PostResult {
		return PostResult{Action: PostModify, Result: "modified"}
	})
	b.On(PostPerform, After, 1, nil, nil, func(_ context.Context, _ Name, _ any, result any, _ error) PostResult {
		secondCalled = true
		return PostResult{Action: PostContinue}
	})

	result, _ := b.Wrap(context.Background(), PostPerform, "p", "u", "x", 0, func(_ context.Context, a any) (any, error) {
		return "original", nil
	})
	if result != "modified" {
		t.Errorf("result = %v, want modified", result)
	}
	if secondCalled {
		t.Error("second post hook ran after modify short-circuit")
	}
}

func TestWrap_PostRetryReinvokes(t *testing.T) {
	b := New()
	attempts := 0
	b.On(PostPerform, After, 0, nil, nil, func(_ context.Context, _ Name, _ any, result any, _ error) PostResult {
		if result == "fail" {
			return PostResult{Action: PostRetry}
		}
		return PostResult{Action: PostContinue}
	})

	result, _ := b.Wrap(context.Background(), PostPerform, "p", "u", "x", 5, func(_ context.Context, a any) (any, error) {
		attempts++
		if attempts < 3 {
			return "fail", nil
		}
		return "ok", nil
	})
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if result != "ok" {
		t.Errorf("result = %v, want ok", result)
	}
}

func TestWrap_PostRetryBoundedByMaxRetries(t *testing.T) {
	b := New()
	attempts := 0
	b.On(PostPerform, After, 0, nil, nil, func(_ context.Context, _ Name, _ any, _ any, _ error) PostResult {
		return PostResult{Action: PostRetry}
	})

	_, _ = b.Wrap(context.Background(), PostPerform, "p", "u", "x", 2, func(_ context.Context, a any) (any, error) {
		attempts++
		return "always-fail", nil
	})
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3 (1 initial + 2 retries)", attempts)
	}
}

func TestWrap_PropagatesError(t *testing.T) {
	b := New()
	wantErr := errors.New("boom")
	_, err := b.Wrap(context.Background(), PrePerform, "p", "u", "x", 0, func(_ context.Context, a any) (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestFilter_RestrictsDispatch(t *testing.T) {
	b := New()
	matched := false
	b.On(PrePerform, Before, 0, &Filter{Profile: "weather"}, func(_ context.Context, _ Name, args any) PreResult {
		matched = true
		return PreResult{Action: PreContinue}
	}, nil)

	b.Wrap(context.Background(), PrePerform, "news", "search", "x", 0, func(_ context.Context, a any) (any, error) {
		return a, nil
	})
	if matched {
		t.Error("listener with non-matching profile filter was invoked")
	}

	b.Wrap(context.Background(), PrePerform, "weather", "current", "x", 0, func(_ context.Context, a any) (any, error) {
		return a, nil
	})
	if !matched {
		t.Error("listener with matching profile filter was not invoked")
	}
}

func TestOn_PriorityOrdering(t *testing.T) {
	b := New()
	var order []int
	b.On(PrePerform, Before, 5, nil, func(_ context.Context, _ Name, args any) PreResult {
		order = append(order, 5)
		return PreResult{Action: PreContinue}
	}, nil)
	b.On(PrePerform, Before, 1, nil, func(_ context.Context, _ Name, args any) PreResult {
		order = append(order, 1)
		return PreResult{Action: PreContinue}
	}, nil)
	b.On(PrePerform, Before, 1, nil, func(_ context.Context, _ Name, args any) PreResult {
		order = append(order, 2)
		return PreResult{Action: PreContinue}
	}, nil)

	b.Wrap(context.Background(), PrePerform, "p", "u", "x", 0, func(_ context.Context, a any) (any, error) {
		return a, nil
	})

	want := []int{1, 2, 5}
	if len(order) != 3 || order[0] != want[0] || order[1] != want[1] || order[2] != want[2] {
		t.Errorf("order = %v, want %v", order, want)
	}
}
