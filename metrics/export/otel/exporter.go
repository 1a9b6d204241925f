package otel

import (
	"context"
	"errors"
	"fmt"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// MetricsSource is what the exporter reads from. *goGate.Engine implements it.
type MetricsSource interface {
	MetricsSnapshot() goGate.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         goGate.MetricID
	instrument metric.Int64ObservableCounter
}

// observedHistogram reports cumulative bucket counts on one gauge, one data
// point per "le" attribute.
type observedHistogram struct {
	id      goGate.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

type OTelExporter struct {
	source       MetricsSource
	registration metric.Registration
	counters     []observedCounter
	histograms   []observedHistogram
	auditDropped metric.Int64ObservableCounter
	leSets       []attribute.Set
}

// NewOTelExporter observes engine on meter.
func NewOTelExporter(meter metric.Meter, engine *goGate.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

func NewOTelExporterFromSource(meter metric.Meter, source MetricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		source:     source,
		counters:   make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		histograms: make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
		leSets:     make([]attribute.Set, len(internaldefs.HistogramBounds)),
	}
	for i, le := range internaldefs.HistogramBounds {
		exporter.leSets[i] = attribute.NewSet(attribute.String("le", le))
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*2+1)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		bucketName := def.Name + "_bucket"
		buckets, err := meter.Int64ObservableGauge(bucketName,
			metric.WithDescription(def.Help+" Cumulative count per upper bound."),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			return nil, fmt.Errorf("create histogram bucket gauge %s: %w", bucketName, err)
		}
		countName := def.Name + "_count"
		count, err := meter.Int64ObservableGauge(countName, metric.WithDescription(def.Help+" Total samples."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", countName, err)
		}
		exporter.histograms = append(exporter.histograms, observedHistogram{id: def.ID, buckets: buckets, count: count})
		observables = append(observables, buckets, count)
	}

	auditDropped, err := meter.Int64ObservableCounter(
		"gogate_audit_dropped_total",
		metric.WithDescription("Audit events dropped because the dispatcher buffer was full."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exporter.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	exporter.registration = registration
	return exporter, nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		raw, ok := snapshot.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, set := range e.leSets {
			observer.ObserveInt64(h.buckets, int64(cumulative[i]), metric.WithAttributeSet(set))
		}
		observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
