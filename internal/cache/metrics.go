package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts cache outcomes. A nil *Metrics records nothing.
type Metrics struct {
	Hits   prometheus.Counter
	Misses prometheus.Counter
	Errors *prometheus.CounterVec
}

// NewMetrics creates the cache collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insta_cache_hits_total",
			Help: "Total number of cache hits",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insta_cache_misses_total",
			Help: "Total number of cache misses",
		}),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insta_cache_errors_total",
				Help: "Total number of failed cache operations",
			},
			[]string{"op"},
		),
	}

	reg.MustRegister(m.Hits)
	reg.MustRegister(m.Misses)
	reg.MustRegister(m.Errors)

	return m
}

func (m *Metrics) hit() {
	if m != nil {
		m.Hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.Misses.Inc()
	}
}

func (m *Metrics) failure(op string) {
	if m != nil {
		m.Errors.WithLabelValues(op).Inc()
	}
}
