package rate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/talentlink/authcore/internal/store"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(clock *fakeClock, limit int, window time.Duration) *Limiter {
	kv := store.NewMemoryWithClock(clock.Now)
	return New(kv, "login", Config{Limit: limit, Window: window}, clock.Now)
}

func TestAllowUpToLimit(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := newTestLimiter(clock, 3, time.Minute)

	for i := 1; i <= 3; i++ {
		d, err := l.Allow(ctx, "ip:10.0.0.1")
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if !d.Allowed || d.Count != i {
			t.Fatalf("request %d: %+v", i, d)
		}
	}

	d, err := l.Allow(ctx, "ip:10.0.0.1")
	if err != nil {
		t.Fatalf("over-limit request: %v", err)
	}
	if d.Allowed {
		t.Fatal("request beyond the limit was allowed")
	}
	if d.Count != 4 {
		t.Fatalf("rejected request not counted: count = %d", d.Count)
	}
	if d.RetryAfter != time.Minute {
		t.Fatalf("retry-after = %v, want the full window", d.RetryAfter)
	}
}

func TestWindowReset(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := newTestLimiter(clock, 2, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := l.Allow(ctx, "ip:10.0.0.1"); err != nil {
			t.Fatalf("Allow: %v", err)
		}
	}

	clock.Advance(time.Minute + time.Second)

	d, err := l.Allow(ctx, "ip:10.0.0.1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !d.Allowed || d.Count != 1 {
		t.Fatalf("fresh window: %+v, want allowed with count 1", d)
	}
}

func TestRetryAfterShrinksMidWindow(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := newTestLimiter(clock, 1, time.Minute)

	if _, err := l.Allow(ctx, "ip:10.0.0.1"); err != nil {
		t.Fatalf("Allow: %v", err)
	}
	clock.Advance(40 * time.Second)

	d, err := l.Allow(ctx, "ip:10.0.0.1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if d.Allowed {
		t.Fatal("second request within the window was allowed")
	}
	if d.RetryAfter != 20*time.Second {
		t.Fatalf("retry-after = %v, want 20s", d.RetryAfter)
	}
}

func TestIdentifiersAndPrefixesAreIndependent(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	kv := store.NewMemoryWithClock(clock.Now)
	login := New(kv, "login", Config{Limit: 1, Window: time.Minute}, clock.Now)
	api := New(kv, "api", Config{Limit: 1, Window: time.Minute}, clock.Now)

	if _, err := login.Allow(ctx, "ip:10.0.0.1"); err != nil {
		t.Fatalf("Allow: %v", err)
	}

	d, err := login.Allow(ctx, "ip:10.0.0.2")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !d.Allowed {
		t.Fatal("second identifier throttled by the first")
	}

	d, err = api.Allow(ctx, "ip:10.0.0.1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !d.Allowed {
		t.Fatal("api class throttled by login class for the same identifier")
	}
}

func TestConcurrentRequestsAreAllCounted(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := newTestLimiter(clock, 1000, time.Minute)

	const workers = 50
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, err := l.Allow(ctx, "ip:10.0.0.1")
				if errors.Is(err, ErrContention) {
					continue
				}
				if err != nil {
					errs <- err
				}
				return
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Allow: %v", err)
	}

	d, err := l.Allow(ctx, "ip:10.0.0.1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if d.Count != workers+1 {
		t.Fatalf("count = %d, want %d", d.Count, workers+1)
	}
}
