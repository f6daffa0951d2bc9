package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "ac:"), mr
}

func TestRedisGetSetDelete(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	if _, ok, err := r.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := r.Set(ctx, "k", "v1", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, ok, err := r.Get(ctx, "k")
	if err != nil || !ok || value != "v1" {
		t.Fatalf("Get: (%q, %v, %v)", value, ok, err)
	}

	// Keys land under the configured prefix.
	if !mr.Exists("ac:k") {
		t.Fatal("key stored without prefix")
	}

	if err := r.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := r.Get(ctx, "k"); ok {
		t.Fatal("key survives Delete")
	}
}

func TestRedisTTL(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	if err := r.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	mr.FastForward(time.Minute + time.Second)

	if _, ok, _ := r.Get(ctx, "k"); ok {
		t.Fatal("key alive past its TTL")
	}
}

func TestRedisCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRedis(t)

	swapped, err := r.CompareAndSwap(ctx, "k", "", "v1", time.Minute)
	if err != nil || !swapped {
		t.Fatalf("create: (%v, %v)", swapped, err)
	}

	swapped, err = r.CompareAndSwap(ctx, "k", "", "v2", time.Minute)
	if err != nil || swapped {
		t.Fatalf("duplicate create: (%v, %v)", swapped, err)
	}

	swapped, err = r.CompareAndSwap(ctx, "k", "v1", "v2", time.Minute)
	if err != nil || !swapped {
		t.Fatalf("swap: (%v, %v)", swapped, err)
	}

	swapped, err = r.CompareAndSwap(ctx, "k", "v1", "v3", time.Minute)
	if err != nil || swapped {
		t.Fatalf("stale swap: (%v, %v)", swapped, err)
	}

	value, _, _ := r.Get(ctx, "k")
	if value != "v2" {
		t.Fatalf("value = %q after failed swap, want v2", value)
	}
}
