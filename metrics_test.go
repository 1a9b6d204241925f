package goGate

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLogout)
	m.Observe(MetricRequestLatency, time.Second)
	if m.Value(MetricLogout) != 0 {
		t.Fatalf("nil metrics must read zero")
	}
	if len(m.Snapshot().Counters) != 0 {
		t.Fatalf("nil metrics snapshot must be empty")
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricGateAllow)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricGateAllow); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		10 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		5 * time.Second,
	}

	for _, d := range observations {
		m.Observe(MetricRequestLatency, d)
	}
	// only the request latency histogram exists
	m.Observe(MetricLogout, time.Millisecond)

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricRequestLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}

	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
	if _, ok := snap.Histograms[MetricLogout]; ok {
		t.Fatalf("unexpected histogram for MetricLogout")
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginRejected)
	m.Inc(MetricLoginRejected)
	m.Observe(MetricRequestLatency, 2*time.Millisecond)

	snap := m.Snapshot()

	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("expected MetricLoginSuccess=1 got %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricLoginRejected] != 2 {
		t.Fatalf("expected MetricLoginRejected=2 got %d", snap.Counters[MetricLoginRejected])
	}
	if len(snap.Counters) != MetricIDCount {
		t.Fatalf("expected %d counters, got %d", MetricIDCount, len(snap.Counters))
	}
	if _, ok := snap.Histograms[MetricRequestLatency]; ok {
		t.Fatalf("latency histogram must be absent when disabled")
	}
}
