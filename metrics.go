package goGate

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a gate counter or histogram.
type MetricID uint16

const (
	// MetricLoginSuccess counts sessions established through Login.
	MetricLoginSuccess MetricID = iota
	// MetricLoginRejected counts logins refused for bad credentials.
	MetricLoginRejected
	// MetricLoginUnavailable counts logins that failed for transport or server reasons.
	MetricLoginUnavailable
	// MetricLogout counts logouts that cleared a present session.
	MetricLogout
	// MetricHydrationRestored counts hydrations that restored a session.
	MetricHydrationRestored
	// MetricHydrationEmpty counts hydrations that found nothing stored.
	MetricHydrationEmpty
	// MetricHydrationCorrupt counts hydrations that discarded an unreadable record.
	MetricHydrationCorrupt
	// MetricHydrationExpired counts hydrations that discarded an expired token.
	MetricHydrationExpired
	// MetricHydrationUnavailable counts hydrations whose backend could not be read.
	MetricHydrationUnavailable
	// MetricPersistFailure counts failed persistence writes.
	MetricPersistFailure
	// MetricAuthorizationExpired counts sessions cleared after a 401.
	MetricAuthorizationExpired
	MetricGateSuspend
	MetricGateAllow
	MetricGateRedirectLogin
	MetricGateRedirectHome
	// MetricNavigationDeduped counts redirects skipped because the target was
	// already the current location.
	MetricNavigationDeduped
	// MetricRequestLatency is the only histogram: outgoing request latency.
	MetricRequestLatency
	metricIDCount
)

// MetricIDCount is the number of defined metric IDs.
const MetricIDCount = int(metricIDCount)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of [Metrics].
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only [MetricRequestLatency] has one.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricRequestLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current counter for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters and, when enabled, the latency histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRequestLatency].buckets[i])
		}
		s.Histograms[MetricRequestLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 25:
		return 0
	case ms <= 50:
		return 1
	case ms <= 100:
		return 2
	case ms <= 250:
		return 3
	case ms <= 500:
		return 4
	case ms <= 1000:
		return 5
	case ms <= 2500:
		return 6
	default:
		return 7
	}
}
