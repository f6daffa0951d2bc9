package authcore

import "sync/atomic"

// MetricID identifies one gateway counter.
type MetricID uint8

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginRateLimited
	MetricLockoutTriggered
	MetricLockedRejected
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricFingerprintMismatch
	MetricPasswordMigration
	MetricAnomalyFlagged
	MetricLogout

	metricCount
)

var metricNames = [metricCount]string{
	MetricLoginSuccess:        "login_success",
	MetricLoginFailure:        "login_failure",
	MetricLoginRateLimited:    "login_rate_limited",
	MetricLockoutTriggered:    "lockout_triggered",
	MetricLockedRejected:      "locked_rejected",
	MetricRefreshSuccess:      "refresh_success",
	MetricRefreshFailure:      "refresh_failure",
	MetricFingerprintMismatch: "fingerprint_mismatch",
	MetricPasswordMigration:   "password_migration",
	MetricAnomalyFlagged:      "anomaly_flagged",
	MetricLogout:              "logout",
}

// Name returns the stable export name of the counter.
func (id MetricID) Name() string {
	if id >= metricCount {
		return "unknown"
	}
	return metricNames[id]
}

// Metrics is a fixed set of lock-free counters.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snapshot := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil {
		return snapshot
	}
	for id := MetricID(0); id < metricCount; id++ {
		snapshot.Counters[id] = m.counters[id].Load()
	}
	return snapshot
}
