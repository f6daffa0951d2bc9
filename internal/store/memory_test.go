package store

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, ok, err := m.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := m.Set(ctx, "k", "v1", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, ok, err := m.Get(ctx, "k")
	if err != nil || !ok || value != "v1" {
		t.Fatalf("Get: (%q, %v, %v)", value, ok, err)
	}

	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("key survives Delete")
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	m := NewMemoryWithClock(clock)

	if err := m.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "k"); !ok {
		t.Fatal("key missing before expiry")
	}

	mu.Lock()
	now = now.Add(time.Minute + time.Millisecond)
	mu.Unlock()

	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("key alive past its TTL")
	}
	if m.Len() != 0 {
		t.Fatalf("Len = %d after expiry, want 0", m.Len())
	}
}

func TestMemoryCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	// Empty old means create-if-absent.
	swapped, err := m.CompareAndSwap(ctx, "k", "", "v1", 0)
	if err != nil || !swapped {
		t.Fatalf("create: (%v, %v)", swapped, err)
	}

	// Creating again must conflict.
	swapped, err = m.CompareAndSwap(ctx, "k", "", "v2", 0)
	if err != nil || swapped {
		t.Fatalf("duplicate create: (%v, %v)", swapped, err)
	}

	// Swap with matching old succeeds.
	swapped, err = m.CompareAndSwap(ctx, "k", "v1", "v2", 0)
	if err != nil || !swapped {
		t.Fatalf("swap: (%v, %v)", swapped, err)
	}

	// Stale old must conflict and leave the value untouched.
	swapped, err = m.CompareAndSwap(ctx, "k", "v1", "v3", 0)
	if err != nil || swapped {
		t.Fatalf("stale swap: (%v, %v)", swapped, err)
	}
	value, _, _ := m.Get(ctx, "k")
	if value != "v2" {
		t.Fatalf("value = %q after failed swap, want v2", value)
	}
}

func TestMemoryCompareAndSwapConcurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	// Only one of N identical creates may win.
	const workers = 20
	var wg sync.WaitGroup
	wins := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			swapped, err := m.CompareAndSwap(ctx, "k", "", "v", 0)
			if err != nil {
				t.Errorf("CompareAndSwap: %v", err)
				return
			}
			if swapped {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	n := 0
	for range wins {
		n++
	}
	if n != 1 {
		t.Fatalf("%d concurrent creates won, want exactly 1", n)
	}
}
