// Package prometheus exposes goGate metrics to Prometheus.
//
// [PrometheusExporter] renders the text exposition format directly and needs
// no registry. [Collector] plugs into a client_golang registry alongside an
// application's own metrics. Both use the names in internaldefs: counters are
// gogate_*_total and the one histogram is gogate_request_latency_seconds.
//
// # What this package must NOT do
//
//   - Register with the global Prometheus registry on its own.
//   - Mutate engine state.
package prometheus
