package auth

import "sync/atomic"

// MetricID identifies one counter in the engine's in-process metrics.
type MetricID int

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginLocked
	MetricValidateRejected
	MetricRefreshSuccess
	MetricRefreshReuseDetected
	MetricSessionCreated
	MetricSessionRevoked
	MetricStoreDegraded
	MetricRevocationBypassed

	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricLoginSuccess:         "login_success",
	MetricLoginFailure:         "login_failure",
	MetricLoginLocked:          "login_locked",
	MetricValidateRejected:     "validate_rejected",
	MetricRefreshSuccess:       "refresh_success",
	MetricRefreshReuseDetected: "refresh_reuse_detected",
	MetricSessionCreated:       "session_created",
	MetricSessionRevoked:       "session_revoked",
	MetricStoreDegraded:        "store_degraded",
	MetricRevocationBypassed:   "revocation_check_bypassed",
}

// Metrics is a fixed set of atomic counters. Safe for concurrent use;
// the host application scrapes Snapshot into whatever pipeline it runs.
type Metrics struct {
	counters [metricIDCount]atomic.Int64
}

// NewMetrics returns a zeroed Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Inc increments one counter. No-op on a nil receiver or unknown id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id < 0 || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Get returns one counter's current value.
func (m *Metrics) Get(id MetricID) int64 {
	if m == nil || id < 0 || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot returns a point-in-time copy of all counters by name.
func (m *Metrics) Snapshot() map[string]int64 {
	snap := make(map[string]int64, metricIDCount)
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap[metricNames[id]] = m.counters[id].Load()
	}
	return snap
}
