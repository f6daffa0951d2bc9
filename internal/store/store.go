package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the backing store is unreachable.
var ErrUnavailable = errors.New("store unavailable")

// KV is the minimal storage contract shared by the lockout, rate, and
// fingerprint managers. Values are opaque strings (the managers encode
// their own records); keys are namespaced by the caller.
//
// A ttl of zero means no expiry. The ttl is a garbage-collection bound
// only: managers embed authoritative timestamps inside their records
// and compare them to the clock at read time.
type KV interface {
	// Get returns the current value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value unconditionally.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// CompareAndSwap writes value only if the stored value equals old.
	// An empty old means "create only if the key is absent". Returns
	// false (without error) when the comparison fails, so read-modify-
	// write loops can retry.
	CompareAndSwap(ctx context.Context, key, old, value string, ttl time.Duration) (bool, error)
}
