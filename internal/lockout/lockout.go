package lockout

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/talentlink/authcore/internal/store"
)

// ErrContention indicates a CAS loop exhausted its retries. Only
// plausible under a pathological write storm on one identifier.
var ErrContention = errors.New("lockout record contention")

const casRetries = 16

// Config holds lockout policy knobs.
type Config struct {
	Threshold int           // failures before hard lock
	Duration  time.Duration // hard lock length, also record TTL
	BaseDelay time.Duration // progressive delay seed
	MaxDelay  time.Duration // progressive delay cap
}

// Status is the observable lockout state for one identifier.
type Status struct {
	Locked    bool
	Remaining time.Duration // time until unlock, when Locked
	Failures  int
}

// Manager tracks failed login attempts per identifier and escalates
// Active -> Warning -> Locked. Records expire lazily: a lock whose
// deadline has passed is cleared on the next read.
type Manager struct {
	kv  store.KV
	cfg Config
	now func() time.Time
}

type record struct {
	Failures    int   `json:"failures"`
	LastAttempt int64 `json:"last_attempt_ms"`
	LockedUntil int64 `json:"locked_until_ms,omitempty"`
}

// New creates a Manager. A nil clock defaults to time.Now.
func New(kv store.KV, cfg Config, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{kv: kv, cfg: cfg, now: now}
}

func key(identifier string) string {
	return "lo:" + identifier
}

// Check reports whether the identifier is currently locked. Expired
// locks are deleted and reported as unlocked. Unknown identifiers are
// Active.
func (m *Manager) Check(ctx context.Context, identifier string) (Status, error) {
	raw, ok, err := m.kv.Get(ctx, key(identifier))
	if err != nil {
		return Status{}, err
	}
	if !ok {
		return Status{}, nil
	}

	rec, err := decode(raw)
	if err != nil {
		// Unreadable record: drop it rather than wedge the identifier.
		_ = m.kv.Delete(ctx, key(identifier))
		return Status{}, nil
	}

	now := m.now()
	if rec.LockedUntil > 0 {
		until := time.UnixMilli(rec.LockedUntil)
		if now.Before(until) {
			return Status{Locked: true, Remaining: until.Sub(now), Failures: rec.Failures}, nil
		}
		// Lock elapsed: back to Active.
		if err := m.kv.Delete(ctx, key(identifier)); err != nil {
			return Status{}, err
		}
		return Status{}, nil
	}

	return Status{Failures: rec.Failures}, nil
}

// RecordFailure increments the failure counter and, at the threshold,
// sets the lock deadline. The increment runs in a CAS loop so parallel
// failures for the same identifier are never lost.
func (m *Manager) RecordFailure(ctx context.Context, identifier string) (Status, error) {
	for i := 0; i < casRetries; i++ {
		raw, ok, err := m.kv.Get(ctx, key(identifier))
		if err != nil {
			return Status{}, err
		}

		var rec record
		old := ""
		if ok {
			old = raw
			if decoded, err := decode(raw); err == nil {
				rec = decoded
			}
		}

		now := m.now()
		if rec.LockedUntil > 0 && !now.Before(time.UnixMilli(rec.LockedUntil)) {
			// Expired lock counts as a clean slate.
			rec = record{}
		}

		rec.Failures++
		rec.LastAttempt = now.UnixMilli()
		if rec.Failures >= m.cfg.Threshold {
			rec.LockedUntil = now.Add(m.cfg.Duration).UnixMilli()
		}

		value, err := json.Marshal(rec)
		if err != nil {
			return Status{}, err
		}

		swapped, err := m.kv.CompareAndSwap(ctx, key(identifier), old, string(value), m.cfg.Duration)
		if err != nil {
			return Status{}, err
		}
		if !swapped {
			continue
		}

		status := Status{Failures: rec.Failures}
		if rec.LockedUntil > 0 {
			status.Locked = true
			status.Remaining = time.UnixMilli(rec.LockedUntil).Sub(now)
		}
		return status, nil
	}

	return Status{}, ErrContention
}

// RecordSuccess wipes all failure state for the identifier. Full reset,
// no partial credit: even a locked record is cleared.
func (m *Manager) RecordSuccess(ctx context.Context, identifier string) error {
	return m.kv.Delete(ctx, key(identifier))
}

// Delay returns the progressive backoff for the identifier's current
// failure count: min(base * 2^(n-1), cap). Zero failures means zero
// delay. Applied by callers before answering a failed attempt, below
// and independent of the hard lockout.
func (m *Manager) Delay(ctx context.Context, identifier string) (time.Duration, error) {
	raw, ok, err := m.kv.Get(ctx, key(identifier))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	rec, err := decode(raw)
	if err != nil {
		return 0, nil
	}
	return m.DelayForFailures(rec.Failures), nil
}

// DelayForFailures computes the progressive delay for a known count.
func (m *Manager) DelayForFailures(failures int) time.Duration {
	if failures <= 0 || m.cfg.BaseDelay <= 0 {
		return 0
	}

	delay := m.cfg.BaseDelay
	for i := 1; i < failures; i++ {
		delay *= 2
		if m.cfg.MaxDelay > 0 && delay >= m.cfg.MaxDelay {
			return m.cfg.MaxDelay
		}
	}
	if m.cfg.MaxDelay > 0 && delay > m.cfg.MaxDelay {
		return m.cfg.MaxDelay
	}
	return delay
}

func decode(raw string) (record, error) {
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return record{}, err
	}
	return rec, nil
}
