package engine

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the Prometheus collectors a Simulation updates
// every tick. The engine never opens an HTTP listener itself -- the
// caller registers Metrics into whatever prometheus.Registerer its
// own driver binary exposes, keeping the core a pure library.
type Metrics struct {
	TickDuration prometheus.Histogram
	AgentCount   prometheus.Gauge
	CombatCount  prometheus.Counter
	KillCount    *prometheus.CounterVec
	TickCounter  prometheus.Counter
}

// NewMetrics builds and registers a Metrics bundle into reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "slimewar_tick_duration_seconds",
			Help:    "Wall-clock duration of one Simulation.Step call.",
			Buckets: prometheus.DefBuckets,
		}),
		AgentCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "slimewar_agent_count",
			Help: "Live agent count at the end of the last tick.",
		}),
		CombatCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slimewar_combat_resolutions_total",
			Help: "Cumulative count of resolved agent-vs-agent fights.",
		}),
		KillCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slimewar_kills_total",
			Help: "Cumulative kills, labeled by the winning team.",
		}, []string{"team"}),
		TickCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slimewar_ticks_total",
			Help: "Cumulative count of simulation ticks executed.",
		}),
	}
	reg.MustRegister(m.TickDuration, m.AgentCount, m.CombatCount, m.KillCount, m.TickCounter)
	return m
}
