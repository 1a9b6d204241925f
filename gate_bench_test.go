package goGate

import (
	"context"
	"net/http"
	"testing"
	"time"
)

var benchLocations = [...]string{
	"/",
	"/dashboard",
	"/login",
	"/register?invite=abc",
	"/reset-password",
	"/bars/1/orders/",
	"/unknown",
}

func benchGate(b *testing.B, metrics *Metrics) *Gate {
	store := loggedInStore(b, "tok")
	g, err := NewGate(store, NavigatorFunc(func(string, NavigateOptions) {}), dashboardRoutes(b), GateOptions{Metrics: metrics})
	if err != nil {
		b.Fatalf("NewGate: %v", err)
	}
	b.Cleanup(g.Close)
	return g
}

func BenchmarkGateDecide(b *testing.B) {
	g := benchGate(b, nil)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		g.Decide(benchLocations[i%len(benchLocations)])
	}
}

func BenchmarkGateAuthorizeParallel(b *testing.B) {
	g := benchGate(b, NewMetrics(MetricsConfig{Enabled: true}))
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		idx := 0
		for pb.Next() {
			g.Authorize(benchLocations[idx])
			idx++
			if idx == len(benchLocations) {
				idx = 0
			}
		}
	})
}

func BenchmarkRouteTableClassify(b *testing.B) {
	table := dashboardRoutes(b)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		table.Classify(benchLocations[i%len(benchLocations)])
	}
}

func BenchmarkStoreStateParallel(b *testing.B) {
	store := loggedInStore(b, "tok")
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if !store.State().Authenticated() {
				b.Error("expected authenticated state")
				return
			}
		}
	})
}

func BenchmarkTransportRoundTrip(b *testing.B) {
	store := loggedInStore(b, "tok")
	tr := NewTransport(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK), nil
	}), store, TransportOptions{
		RequestIDHeader: "X-Request-Id",
		Metrics:         NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true}),
	})
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://api.test/api/v1/bar-management/bars", nil)
	if err != nil {
		b.Fatalf("NewRequest: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		resp, err := tr.RoundTrip(req)
		if err != nil {
			b.Fatalf("RoundTrip: %v", err)
		}
		resp.Body.Close()
	}
}

func BenchmarkMetricsIncParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc(MetricGateAllow)
		}
	})
}

func BenchmarkMetricsObserveLatencyParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	d := 120 * time.Millisecond
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Observe(MetricRequestLatency, d)
		}
	})
}
