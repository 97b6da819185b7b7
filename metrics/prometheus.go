// prometheus.go - Prometheus-Bridge fuer die Counter-Registry
// Enthält: Collector, NewCollector
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes a Registry as a prometheus.Collector. Counter
// names become the "name" label of larch_backend_counter_total.
type Collector struct {
	registry *Registry
	desc     *prometheus.Desc
}

// NewCollector erzeugt einen Collector ueber der gegebenen Registry
func NewCollector(r *Registry) *Collector {
	return &Collector{
		registry: r,
		desc: prometheus.NewDesc(
			"larch_backend_counter_total",
			"Backend event counters, including eager fallbacks.",
			[]string{"name"},
			nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, name := range c.registry.Names() {
		ch <- prometheus.MustNewConstMetric(
			c.desc,
			prometheus.CounterValue,
			float64(c.registry.Value(name)),
			name,
		)
	}
}
