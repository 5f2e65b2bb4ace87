package cache

import "github.com/prometheus/client_golang/prometheus"

// PromMetrics implements Metrics and exports Prometheus counters/gauges.
// All Prometheus metric types are safe for concurrent use.
type PromMetrics struct {
	hits    prometheus.Counter
	misses  prometheus.Counter
	evicts  prometheus.Counter
	entries prometheus.Gauge
	bytes   prometheus.Gauge
}

// NewPromMetrics registers cache metrics under the given namespace and
// subsystem. A nil registerer falls back to the default registerer.
func NewPromMetrics(reg prometheus.Registerer, namespace, subsystem string) *PromMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PromMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "hits_total",
			Help:      "Cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "misses_total",
			Help:      "Cache misses",
		}),
		evicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "evictions_total",
			Help:      "Entries evicted to stay under the size budget",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "entries",
			Help:      "Number of resident entries",
		}),
		bytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "size_bytes",
			Help:      "Estimated total size of resident entries",
		}),
	}
	reg.MustRegister(m.hits, m.misses, m.evicts, m.entries, m.bytes)
	return m
}

func (m *PromMetrics) Hit()   { m.hits.Inc() }
func (m *PromMetrics) Miss()  { m.misses.Inc() }
func (m *PromMetrics) Evict() { m.evicts.Inc() }

func (m *PromMetrics) Size(entries int, bytes int) {
	m.entries.Set(float64(entries))
	m.bytes.Set(float64(bytes))
}
