package failover

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors shared by all managers.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Probes        *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
	ActiveRole    *prometheus.GaugeVec
	ProbeDuration *prometheus.HistogramVec
	Sessions      *prometheus.CounterVec
}

// NewMetrics creates the failover collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insta_failover_probes_total",
				Help: "Total number of primary health probes",
			},
			[]string{"backend", "result"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insta_failover_transitions_total",
				Help: "Total number of role transitions",
			},
			[]string{"backend", "to"},
		),
		ActiveRole: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "insta_failover_active_role",
				Help: "Active pool per backend (1 primary, 0 fallback, -1 unusable)",
			},
			[]string{"backend"},
		),
		ProbeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insta_failover_probe_duration_seconds",
				Help:    "Primary health probe latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"backend"},
		),
		Sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insta_failover_sessions_total",
				Help: "Total number of sessions handed out",
			},
			[]string{"backend", "role"},
		),
	}

	reg.MustRegister(m.Probes)
	reg.MustRegister(m.Transitions)
	reg.MustRegister(m.ActiveRole)
	reg.MustRegister(m.ProbeDuration)
	reg.MustRegister(m.Sessions)

	return m
}

func (m *Metrics) observeProbe(backend string, res ProbeResult) {
	if m == nil {
		return
	}
	result := "healthy"
	if !res.Healthy {
		result = "unhealthy"
	}
	m.Probes.WithLabelValues(backend, result).Inc()
	m.ProbeDuration.WithLabelValues(backend).Observe(res.Latency.Seconds())
}

func (m *Metrics) recordTransition(backend string, to State) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(backend, to.String()).Inc()
}

func (m *Metrics) setState(backend string, s State) {
	if m == nil {
		return
	}
	v := -1.0
	switch s {
	case StateUsingPrimary:
		v = 1
	case StateUsingFallback:
		v = 0
	}
	m.ActiveRole.WithLabelValues(backend).Set(v)
}

func (m *Metrics) recordSession(backend string, role Role) {
	if m == nil {
		return
	}
	m.Sessions.WithLabelValues(backend, role.String()).Inc()
}
