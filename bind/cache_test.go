package bind

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCache_GetOrCreate_CallsFactoryOnce(t *testing.T) {
	c := New()
	var calls int32

	factory := func(ctx context.Context, key string) (*Provider, time.Time, error) {
		atomic.AddInt32(&calls, 1)
		return &Provider{Service: key}, time.Now().Add(time.Hour), nil
	}

	for i := 0; i < 3; i++ {
		p, err := c.GetOrCreate(context.Background(), "k", factory)
		if err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
		if p.Service != "k" {
			t.Errorf("Service = %q", p.Service)
		}
	}

	if calls != 1 {
		t.Errorf("factory calls = %d, want 1", calls)
	}
}

func TestCache_GetOrCreate_ConcurrentCallsDedup(t *testing.T) {
	c := New()
	var calls int32
	start := make(chan struct{})

	factory := func(ctx context.Context, key string) (*Provider, time.Time, error) {
		atomic.AddInt32(&calls, 1)
		<-start
		return &Provider{Service: key}, time.Now().Add(time.Hour), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.GetOrCreate(context.Background(), "shared", factory)
		}()
	}
	close(start)
	wg.Wait()

	if calls != 1 {
		t.Errorf("factory calls = %d, want 1", calls)
	}
}

func TestCache_ExpiryTriggersRebind(t *testing.T) {
	now := time.Now()
	clock := &now
	c := NewWithClock(func() time.Time { return *clock })

	var calls int32
	factory := func(ctx context.Context, key string) (*Provider, time.Time, error) {
		atomic.AddInt32(&calls, 1)
		return &Provider{Service: key}, clock.Add(0).Add(time.Minute), nil
	}

	if _, err := c.GetOrCreate(context.Background(), "k", factory); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := c.GetOrCreate(context.Background(), "k", factory); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls before expiry = %d, want 1", calls)
	}

	*clock = clock.Add(2 * time.Minute)

	if _, err := c.GetOrCreate(context.Background(), "k", factory); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls after expiry = %d, want exactly one extra factory invocation (2 total)", calls)
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := New()
	var calls int32
	factory := func(ctx context.Context, key string) (*Provider, time.Time, error) {
		atomic.AddInt32(&calls, 1)
		return &Provider{Service: key}, time.Now().Add(time.Hour), nil
	}

	c.GetOrCreate(context.Background(), "k", factory)
	c.Invalidate("k")
	c.GetOrCreate(context.Background(), "k", factory)

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestCache_InvalidateAll(t *testing.T) {
	c := New()
	var calls int32
	factory := func(ctx context.Context, key string) (*Provider, time.Time, error) {
		atomic.AddInt32(&calls, 1)
		return &Provider{Service: key}, time.Now().Add(time.Hour), nil
	}

	c.GetOrCreate(context.Background(), "a", factory)
	c.GetOrCreate(context.Background(), "b", factory)
	c.InvalidateAll()
	c.GetOrCreate(context.Background(), "a", factory)
	c.GetOrCreate(context.Background(), "b", factory)

	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
}

func TestCache_FactoryErrorNotCached(t *testing.T) {
	c := New()
	var calls int32
	factory := func(ctx context.Context, key string) (*Provider, time.Time, error) {
		atomic.AddInt32(&calls, 1)
		if calls == 1 {
			return nil, time.Time{}, errBoom
		}
		return &Provider{Service: key}, time.Now().Add(time.Hour), nil
	}

	if _, err := c.GetOrCreate(context.Background(), "k", factory); err == nil {
		t.Fatal("GetOrCreate() = nil error, want error from factory")
	}
	if _, err := c.GetOrCreate(context.Background(), "k", factory); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (error result must not be cached)", calls)
	}
}

var errBoom = &boomError{}

type boomError struct{}

func (*boomError) Error() string { return "boom" }

func TestKey(t *testing.T) {
	if got := Key("profile-key", "provider-key"); got != "profile-key|provider-key" {
		t.Errorf("Key() = %q", got)
	}
}
