// Package metrics holds the Prometheus collectors for the boot lifecycle.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// Metrics holds Prometheus metrics for the lifecycle orchestrator.
//
// Metrics:
//   - ignitor_phase_duration_seconds{phase,outcome} - Histogram of boot phase times
//   - ignitor_hook_dispatch_total{timing,event,outcome} - Count of hook dispatches
//   - ignitor_preloads_total{outcome} - Count of preload modules loaded, skipped or failed
//   - ignitor_async_failures_total - Count of reported background failures
//   - ignitor_boots_total{mode,outcome} - Count of boot runs
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	PhaseDuration *prometheus.HistogramVec
	HookDispatch  *prometheus.CounterVec
	Preloads      *prometheus.CounterVec
	AsyncFailures prometheus.Counter
	Boots         *prometheus.CounterVec
}

// New creates metrics registered with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		PhaseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ignitor_phase_duration_seconds",
				Help:    "Duration of boot lifecycle phases in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
			},
			[]string{"phase", "outcome"},
		),
		HookDispatch: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ignitor_hook_dispatch_total",
				Help: "Total number of lifecycle hook dispatches",
			},
			[]string{"timing", "event", "outcome"},
		),
		Preloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ignitor_preloads_total",
				Help: "Total number of preload modules processed",
			},
			[]string{"outcome"},
		),
		AsyncFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ignitor_async_failures_total",
				Help: "Total number of background failures reported to the guard",
			},
		),
		Boots: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ignitor_boots_total",
				Help: "Total number of boot runs",
			},
			[]string{"mode", "outcome"},
		),
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// ObservePhase records how long phase took.
func (m *Metrics) ObservePhase(phase string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.PhaseDuration.WithLabelValues(phase, outcome(err)).Observe(d.Seconds())
}

// HookDispatched counts one dispatch of timing:event.
func (m *Metrics) HookDispatched(timing, event string, err error) {
	if m == nil {
		return
	}
	m.HookDispatch.WithLabelValues(timing, event, outcome(err)).Inc()
}

// Preload counts one preload module with the given outcome label.
func (m *Metrics) Preload(result string) {
	if m == nil {
		return
	}
	m.Preloads.WithLabelValues(result).Inc()
}

// AsyncFailure counts one guarded background failure.
func (m *Metrics) AsyncFailure() {
	if m == nil {
		return
	}
	m.AsyncFailures.Inc()
}

// Boot counts one boot run in mode ("http", "command" or "fire").
func (m *Metrics) Boot(mode string, err error) {
	if m == nil {
		return
	}
	m.Boots.WithLabelValues(mode, outcome(err)).Inc()
}
