package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "failover_trader"

// Metrics коллекторы ядра. Регистрируются в переданном Registerer,
// в тестах это отдельный prometheus.NewRegistry().
type Metrics struct {
	DispatchAttempts *prometheus.CounterVec
	Failovers        prometheus.Counter
	DispatchFailures prometheus.Counter
	PositionsOpen    prometheus.Gauge
	RealizedPnL      *prometheus.GaugeVec
	EventsDropped    prometheus.Counter
	ExitsRejected    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DispatchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_attempts_total",
				Help:      "Order placement attempts by broker, role and outcome.",
			},
			[]string{"broker", "role", "outcome"},
		),
		Failovers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failovers_total",
			Help:      "Dispatches that fell through to the backup broker.",
		}),
		DispatchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_exhausted_total",
			Help:      "Dispatches that failed on every broker.",
		}),
		PositionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "positions_open",
			Help:      "Instruments currently holding a position.",
		}),
		RealizedPnL: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "realized_pnl",
				Help:      "Realized net P&L per instrument.",
			},
			[]string{"instrument"},
		),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Trade events dropped because the sink queue was full.",
		}),
		ExitsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exits_rejected_total",
				Help:      "Exit decisions that did not produce an exit order.",
			},
			[]string{"reason"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.DispatchAttempts,
			m.Failovers,
			m.DispatchFailures,
			m.PositionsOpen,
			m.RealizedPnL,
			m.EventsDropped,
			m.ExitsRejected,
		)
	}
	return m
}

// NewDefault регистрирует в глобальном реестре, отдаётся через /metrics.
func NewDefault() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}
