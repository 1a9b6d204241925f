package internaldefs

import (
	goGate "github.com/MrEthical07/goGate"
)

// CounterDef names one counter for exporters.
type CounterDef struct {
	ID   goGate.MetricID
	Name string
	Help string
}

// HistogramDef names one histogram for exporters.
type HistogramDef struct {
	ID   goGate.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goGate.MetricLoginSuccess, Name: "gogate_login_success_total", Help: "Sessions established by login."},
	{ID: goGate.MetricLoginRejected, Name: "gogate_login_rejected_total", Help: "Logins refused for invalid credentials."},
	{ID: goGate.MetricLoginUnavailable, Name: "gogate_login_unavailable_total", Help: "Logins that failed because the backend was unreachable or errored."},
	{ID: goGate.MetricLogout, Name: "gogate_logout_total", Help: "Logouts that cleared a session."},
	{ID: goGate.MetricHydrationRestored, Name: "gogate_hydration_restored_total", Help: "Hydrations that restored a persisted session."},
	{ID: goGate.MetricHydrationEmpty, Name: "gogate_hydration_empty_total", Help: "Hydrations that found no persisted session."},
	{ID: goGate.MetricHydrationCorrupt, Name: "gogate_hydration_corrupt_total", Help: "Hydrations that discarded an unreadable record."},
	{ID: goGate.MetricHydrationExpired, Name: "gogate_hydration_expired_total", Help: "Hydrations that discarded an expired token."},
	{ID: goGate.MetricHydrationUnavailable, Name: "gogate_hydration_unavailable_total", Help: "Hydrations whose storage backend could not be read."},
	{ID: goGate.MetricPersistFailure, Name: "gogate_persist_failure_total", Help: "Failed persistence writes."},
	{ID: goGate.MetricAuthorizationExpired, Name: "gogate_authorization_expired_total", Help: "Sessions cleared after the backend answered 401."},
	{ID: goGate.MetricGateSuspend, Name: "gogate_gate_suspend_total", Help: "Gate decisions that suspended rendering."},
	{ID: goGate.MetricGateAllow, Name: "gogate_gate_allow_total", Help: "Gate decisions that allowed the location."},
	{ID: goGate.MetricGateRedirectLogin, Name: "gogate_gate_redirect_login_total", Help: "Gate decisions that redirected to login."},
	{ID: goGate.MetricGateRedirectHome, Name: "gogate_gate_redirect_home_total", Help: "Gate decisions that redirected home."},
	{ID: goGate.MetricNavigationDeduped, Name: "gogate_navigation_deduped_total", Help: "Redirects skipped because the target was already current."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goGate.MetricRequestLatency, Name: "gogate_request_latency_seconds", Help: "Backend request latency."},
}

// HistogramBounds are the upper bounds of the latency buckets in seconds.
var HistogramBounds = []string{
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"+Inf",
}

// HistogramBoundValues are HistogramBounds as numbers, without +Inf.
var HistogramBoundValues = []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// HistogramBoundSuffix renders HistogramBounds into instrument-name-safe suffixes.
var HistogramBoundSuffix = []string{
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling when raw
// is short or absent.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
