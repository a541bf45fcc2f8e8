// Package metrics exposes engine measurements to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/prisonforge/server/internal/ability"
)

// Recorder implements ability.Recorder and carries the game loop gauges.
// Collectors are registered on the Registerer given to NewRecorder.
type Recorder struct {
	BlocksProcessed *prometheus.CounterVec
	Activations     *prometheus.CounterVec
	Refusals        *prometheus.CounterVec
	BudgetYields    *prometheus.CounterVec
	Animated        prometheus.Gauge
	TickDuration    prometheus.Histogram
	Hosts           prometheus.Gauge
	LedgerPending   prometheus.Gauge
	LedgerFlushes   *prometheus.CounterVec
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		BlocksProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prisonforge_ability_blocks_total",
				Help: "Blocks handled by ability activations, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		Activations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prisonforge_ability_activations_total",
				Help: "Finished ability activations, by kind and final state",
			},
			[]string{"kind", "state"},
		),
		Refusals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prisonforge_ability_refusals_total",
				Help: "Refused ability activations, by kind and refusal code",
			},
			[]string{"kind", "code"},
		),
		BudgetYields: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prisonforge_ability_budget_yields_total",
				Help: "Ticks where an activation stopped early on its wall-clock budget",
			},
			[]string{"kind"},
		),
		Animated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prisonforge_ability_animated_actors",
			Help: "Animated collection actors currently in flight",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "prisonforge_tick_duration_seconds",
			Help:    "Time spent running one game loop tick",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		Hosts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prisonforge_bridge_hosts",
			Help: "Host connections that completed the handshake",
		}),
		LedgerPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prisonforge_ledger_pending_rows",
			Help: "Profile deltas waiting for the next ledger flush",
		}),
		LedgerFlushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prisonforge_ledger_flushes_total",
				Help: "Ledger flush attempts by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		r.BlocksProcessed,
		r.Activations,
		r.Refusals,
		r.BudgetYields,
		r.Animated,
		r.TickDuration,
		r.Hosts,
		r.LedgerPending,
		r.LedgerFlushes,
	)
	return r
}

func (r *Recorder) BlockProcessed(kind ability.Kind, outcome ability.Outcome) {
	r.BlocksProcessed.WithLabelValues(string(kind), outcome.String()).Inc()
}

func (r *Recorder) ActivationFinished(kind ability.Kind, state ability.State) {
	r.Activations.WithLabelValues(string(kind), state.String()).Inc()
}

func (r *Recorder) ActivationRefused(kind ability.Kind, code string) {
	if code == "" {
		code = "unknown"
	}
	r.Refusals.WithLabelValues(string(kind), code).Inc()
}

func (r *Recorder) BudgetYield(kind ability.Kind) {
	r.BudgetYields.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) AnimatedActors(n int) {
	r.Animated.Set(float64(n))
}

func (r *Recorder) ObserveTick(d time.Duration) {
	r.TickDuration.Observe(d.Seconds())
}

func (r *Recorder) SetHosts(n int) {
	r.Hosts.Set(float64(n))
}

// LedgerFlushed records one flush attempt and the rows still waiting after it.
func (r *Recorder) LedgerFlushed(err error, pending int) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.LedgerFlushes.WithLabelValues(result).Inc()
	r.LedgerPending.Set(float64(pending))
}
