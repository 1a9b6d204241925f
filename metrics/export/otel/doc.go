// Package otel reports goGate counters and the request latency histogram
// through an OpenTelemetry Meter.
//
// [NewOTelExporter] registers one Int64ObservableCounter per counter and, for
// the histogram, a bucket gauge with an "le" attribute per bound plus a count
// gauge. A single callback reads the engine snapshot on each collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
