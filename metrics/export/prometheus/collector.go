package prometheus

import (
	"github.com/MrEthical07/goGate/metrics/export/internaldefs"
	promclient "github.com/prometheus/client_golang/prometheus"
)

// Collector exposes gate metrics to a client_golang registry. Values are read
// from the source on every scrape.
type Collector struct {
	source     MetricsSource
	counters   []*promclient.Desc
	histograms []*promclient.Desc
	dropped    *promclient.Desc
}

var _ promclient.Collector = (*Collector)(nil)

// NewCollector returns a Collector over source. Register it with
// promclient.MustRegister or a custom registry.
func NewCollector(source MetricsSource) *Collector {
	c := &Collector{
		source:     source,
		counters:   make([]*promclient.Desc, len(internaldefs.CounterDefs)),
		histograms: make([]*promclient.Desc, len(internaldefs.HistogramDefs)),
		dropped:    promclient.NewDesc(auditDroppedName, auditDroppedHelp, nil, nil),
	}
	for i, def := range internaldefs.CounterDefs {
		c.counters[i] = promclient.NewDesc(def.Name, def.Help, nil, nil)
	}
	for i, def := range internaldefs.HistogramDefs {
		c.histograms[i] = promclient.NewDesc(def.Name, def.Help, nil, nil)
	}
	return c
}

func (c *Collector) Describe(ch chan<- *promclient.Desc) {
	for _, d := range c.counters {
		ch <- d
	}
	for _, d := range c.histograms {
		ch <- d
	}
	ch <- c.dropped
}

func (c *Collector) Collect(ch chan<- promclient.Metric) {
	if c.source == nil {
		return
	}
	snapshot := c.source.MetricsSnapshot()

	for i, def := range internaldefs.CounterDefs {
		ch <- promclient.MustNewConstMetric(c.counters[i], promclient.CounterValue, float64(snapshot.Counters[def.ID]))
	}

	for i, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramBoundValues))
		for j, le := range internaldefs.HistogramBoundValues {
			buckets[le] = cumulative[j]
		}
		ch <- promclient.MustNewConstHistogram(c.histograms[i], cumulative[len(cumulative)-1], 0, buckets)
	}

	ch <- promclient.MustNewConstMetric(c.dropped, promclient.CounterValue, float64(c.source.AuditDropped()))
}
