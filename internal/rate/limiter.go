package rate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/talentlink/authcore/internal/store"
)

// ErrContention indicates a CAS loop exhausted its retries.
var ErrContention = errors.New("rate window contention")

const casRetries = 16

// Config holds the window tuning for one action class.
type Config struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of one counted request.
type Decision struct {
	Allowed    bool
	Count      int
	RetryAfter time.Duration // time until the window resets, when rejected
}

// Limiter counts requests in fixed, non-overlapping windows per
// identifier. Separate instances with separate key prefixes cover
// separate action classes (login vs. general API). The fixed window
// trades boundary-burst precision for O(1) memory per identifier; an
// accepted approximation, not a defect.
type Limiter struct {
	kv     store.KV
	prefix string
	cfg    Config
	now    func() time.Time
}

type window struct {
	Count   int   `json:"count"`
	ResetAt int64 `json:"reset_at_ms"`
}

// New creates a Limiter for one action class. A nil clock defaults to
// time.Now.
func New(kv store.KV, prefix string, cfg Config, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{kv: kv, prefix: prefix, cfg: cfg, now: now}
}

func (l *Limiter) key(identifier string) string {
	return "rw:" + l.prefix + ":" + identifier
}

// Allow counts the request and reports whether it fits the window.
// A missing or elapsed window starts fresh with count 1. The increment
// happens even on rejection, and runs in a CAS loop so two concurrent
// requests cannot share a count.
func (l *Limiter) Allow(ctx context.Context, identifier string) (Decision, error) {
	for i := 0; i < casRetries; i++ {
		raw, ok, err := l.kv.Get(ctx, l.key(identifier))
		if err != nil {
			return Decision{}, err
		}

		now := l.now()
		var win window
		old := ""
		if ok {
			old = raw
			if decoded, derr := decodeWindow(raw); derr == nil {
				win = decoded
			}
		}

		if win.ResetAt == 0 || !now.Before(time.UnixMilli(win.ResetAt)) {
			win = window{ResetAt: now.Add(l.cfg.Window).UnixMilli()}
		}
		win.Count++

		value, err := json.Marshal(win)
		if err != nil {
			return Decision{}, err
		}

		swapped, err := l.kv.CompareAndSwap(ctx, l.key(identifier), old, string(value), l.cfg.Window)
		if err != nil {
			return Decision{}, err
		}
		if !swapped {
			continue
		}

		decision := Decision{Allowed: win.Count <= l.cfg.Limit, Count: win.Count}
		if !decision.Allowed {
			decision.RetryAfter = time.UnixMilli(win.ResetAt).Sub(now)
		}
		return decision, nil
	}

	return Decision{}, ErrContention
}

func decodeWindow(raw string) (window, error) {
	var win window
	if err := json.Unmarshal([]byte(raw), &win); err != nil {
		return window{}, err
	}
	return win, nil
}
