package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/talentlink/authcore/internal/store"
)

// unknown is substituted for absent attributes so Compute stays total.
const unknown = "unknown"

// Attributes is the ordered tuple of connection-identifying request
// properties hashed into a fingerprint.
type Attributes struct {
	ClientIP       string
	UserAgent      string
	AcceptLanguage string
	AcceptEncoding string
}

// Compute derives the stable fingerprint hash for a request. The same
// attributes always produce the same hex digest; missing fields fall
// back to a sentinel instead of shifting the tuple.
func Compute(a Attributes) string {
	h := sha256.New()
	for _, part := range []string{a.ClientIP, a.UserAgent, a.AcceptLanguage, a.AcceptEncoding} {
		if part == "" {
			part = unknown
		}
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Binder associates each session with the fingerprint of its first
// request (trust-on-first-use). A later mismatch is a hijacking
// tripwire, not proof: IP and user agent can change legitimately, so
// callers surface mismatches as a distinct rejection and let the UI
// decide whether to force re-authentication.
type Binder struct {
	kv      store.KV
	enabled bool
	ttl     time.Duration // binding lifetime, sized to the refresh TTL
}

// NewBinder creates a Binder. When enabled is false every validation
// succeeds and nothing is stored.
func NewBinder(kv store.KV, enabled bool, ttl time.Duration) *Binder {
	return &Binder{kv: kv, enabled: enabled, ttl: ttl}
}

func key(sessionID string) string {
	return "fp:" + sessionID
}

// BindOrValidate stores the fingerprint on first use for the session
// and returns true; afterwards it returns whether the presented
// fingerprint matches the bound one. A binding, once written, is never
// silently overwritten.
func (b *Binder) BindOrValidate(ctx context.Context, sessionID, fp string) (bool, error) {
	if !b.enabled || sessionID == "" {
		return true, nil
	}

	swapped, err := b.kv.CompareAndSwap(ctx, key(sessionID), "", fp, b.ttl)
	if err != nil {
		return false, err
	}
	if swapped {
		return true, nil
	}

	bound, ok, err := b.kv.Get(ctx, key(sessionID))
	if err != nil {
		return false, err
	}
	if !ok {
		// Binding expired between the swap and the read; bind fresh.
		swapped, err := b.kv.CompareAndSwap(ctx, key(sessionID), "", fp, b.ttl)
		if err != nil {
			return false, err
		}
		return swapped, nil
	}
	return bound == fp, nil
}

// Unbind drops the binding for a session, e.g. on logout.
func (b *Binder) Unbind(ctx context.Context, sessionID string) error {
	if !b.enabled || sessionID == "" {
		return nil
	}
	return b.kv.Delete(ctx, key(sessionID))
}
