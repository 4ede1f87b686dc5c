/*
metrics.go - Prometheus collectors for the planning session

PURPOSE:
  Implements planning.Observer so the Session reports edits and
  simulations without knowing about Prometheus.

METRICS:
  budget_edits_total{result}            applied_<month kind> | rejected_<reason>
  budget_simulations_total              published simulations
  budget_simulations_discarded_total    simulations superseded by a newer input
  budget_simulation_duration_seconds    Simulate + MergeIntoGrid wall time
  budget_remaining_debt                 remaining debt at the current month

USAGE:
  reg := prometheus.NewRegistry()
  m := metrics.New(reg)
  session := planning.NewSession(cfg, store, store, planning.WithObserver(m))
  http.Handle("/metrics", m.Handler())
*/
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp/budget-engine/planning"
)

const namespace = "budget"

// Metrics is a planning.Observer backed by Prometheus collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	edits         *prometheus.CounterVec
	simulations   prometheus.Counter
	discarded     prometheus.Counter
	duration      prometheus.Histogram
	remainingDebt prometheus.Gauge
}

var _ planning.Observer = (*Metrics)(nil)

// New registers the collectors on reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edits_total",
			Help:      "Cell edits by result.",
		}, []string{"result"}),
		simulations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Payoff simulations published to the grid.",
		}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_discarded_total",
			Help:      "Payoff simulations discarded because inputs changed while running.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_duration_seconds",
			Help:      "Time spent simulating and merging a payoff plan.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		remainingDebt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remaining_debt",
			Help:      "Total remaining debt at the current month of the latest plan.",
		}),
	}
	reg.MustRegister(m.edits, m.simulations, m.discarded, m.duration, m.remainingDebt)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) EditApplied(kind planning.MonthKind) {
	m.edits.WithLabelValues("applied_" + kind.String()).Inc()
}

func (m *Metrics) EditRejected(err error) {
	m.edits.WithLabelValues("rejected_" + rejectReason(err)).Inc()
}

func (m *Metrics) SimulationRun(d time.Duration, plan *planning.PayoffPlan) {
	m.simulations.Inc()
	m.duration.Observe(d.Seconds())
	if plan == nil {
		return
	}
	remaining := planning.TotalBalance(plan.Starting)
	if first, ok := plan.Month(0); ok {
		remaining = first.RemainingDebt
	}
	f, _ := remaining.Float64()
	m.remainingDebt.Set(f)
}

func (m *Metrics) SimulationDiscarded() {
	m.discarded.Inc()
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, planning.ErrReadOnlyCell):
		return "read_only"
	case errors.Is(err, planning.ErrInvalidValue):
		return "invalid_value"
	case errors.Is(err, planning.ErrInvalidTimeline):
		return "out_of_range"
	default:
		return "other"
	}
}
