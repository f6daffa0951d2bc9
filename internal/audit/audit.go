package audit

import (
	"context"
	"sync"
	"time"
)

// Event is one security-relevant occurrence. The journal is an anomaly
// substrate, not a compliance-grade audit trail.
type Event struct {
	Timestamp  time.Time         `json:"timestamp"`
	Type       string            `json:"event_type"`
	Identifier string            `json:"identifier,omitempty"`
	ClientIP   string            `json:"client_ip,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"`
	Success    bool              `json:"success"`
	Details    map[string]string `json:"details,omitempty"`
}

// Event types recorded by the gateway.
const (
	TypeLogin               = "login"
	TypeLockout             = "lockout_triggered"
	TypeRateLimited         = "rate_limited"
	TypeTokenRefresh        = "token_refresh"
	TypeFingerprintMismatch = "fingerprint_mismatch"
	TypeLogout              = "logout"
	TypePasswordMigration   = "password_migration"
)

// Anomaly is the result of a heuristic scan over one identifier's
// recent events. Reasons are cumulative, not mutually exclusive.
type Anomaly struct {
	Suspicious bool
	Reasons    []string
}

// Detection thresholds, applied over the identifier's last scanWindow
// events.
const (
	scanWindow        = 50
	failedLoginFlag   = 3
	distinctIPFlag    = 3
	burstAttemptsFlag = 10
	burstSpan         = 5 * time.Minute
)

// Log is a bounded append-only journal with ring-buffer eviction.
// Oldest events are overwritten once capacity is exceeded. Optionally
// forwards every event to an async sink dispatcher.
type Log struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool

	dispatcher *Dispatcher
	now        func() time.Time
}

// NewLog creates a journal holding at most capacity events. The
// dispatcher may be nil. A nil clock defaults to time.Now.
func NewLog(capacity int, dispatcher *Dispatcher, now func() time.Time) *Log {
	if capacity <= 0 {
		capacity = 1
	}
	if now == nil {
		now = time.Now
	}
	return &Log{
		events:     make([]Event, capacity),
		dispatcher: dispatcher,
		now:        now,
	}
}

// Record appends the event, stamping it if the caller did not.
func (l *Log) Record(ctx context.Context, event Event) {
	if l == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}

	l.mu.Lock()
	l.events[l.next] = event
	l.next++
	if l.next == len(l.events) {
		l.next = 0
		l.full = true
	}
	l.mu.Unlock()

	l.dispatcher.Emit(ctx, event)
}

// Recent returns up to limit events newest-first, optionally filtered
// by identifier (empty matches all). limit <= 0 means no cap.
func (l *Log) Recent(identifier string, limit int) []Event {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Event
	l.scan(func(e Event) bool {
		if identifier != "" && e.Identifier != identifier {
			return true
		}
		out = append(out, e)
		return limit <= 0 || len(out) < limit
	})
	return out
}

// DetectAnomaly scans the identifier's last 50 events for brute-force
// signatures: repeated failures, address churn, and attempt bursts.
func (l *Log) DetectAnomaly(identifier string) Anomaly {
	if l == nil {
		return Anomaly{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		window      []Event
		failed      int
		burst       int
		distinctIPs = map[string]struct{}{}
		cutoff      = l.now().Add(-burstSpan)
	)

	l.scan(func(e Event) bool {
		if e.Identifier != identifier {
			return true
		}
		window = append(window, e)
		return len(window) < scanWindow
	})

	for _, e := range window {
		if e.Type == TypeLogin && !e.Success {
			failed++
		}
		if e.ClientIP != "" {
			distinctIPs[e.ClientIP] = struct{}{}
		}
		if e.Type == TypeLogin && e.Timestamp.After(cutoff) {
			burst++
		}
	}

	var anomaly Anomaly
	if failed >= failedLoginFlag {
		anomaly.Reasons = append(anomaly.Reasons, "repeated login failures")
	}
	if len(distinctIPs) > distinctIPFlag {
		anomaly.Reasons = append(anomaly.Reasons, "multiple client addresses")
	}
	if burst > burstAttemptsFlag {
		anomaly.Reasons = append(anomaly.Reasons, "attempt burst")
	}
	anomaly.Suspicious = len(anomaly.Reasons) > 0
	return anomaly
}

// Len reports how many events the journal currently holds.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return len(l.events)
	}
	return l.next
}

// scan visits events newest-first until fn returns false.
// Callers must hold the mutex.
func (l *Log) scan(fn func(Event) bool) {
	count := l.next
	if l.full {
		count = len(l.events)
	}
	for i := 0; i < count; i++ {
		idx := l.next - 1 - i
		if idx < 0 {
			idx += len(l.events)
		}
		if !fn(l.events[idx]) {
			return
		}
	}
}
