// Package metrics exposes Prometheus counters and histograms for rotation
// attempts. The rotation engine itself owns no scheduling loop; these
// metrics only observe individual Initialize/Rotate calls made by a driver.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attemptsTotal  *prometheus.CounterVec
	outcomesTotal  *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	recoveryTotal  *prometheus.CounterVec
	registerOnce   sync.Once
	registered     bool
)

// Init registers the rotation metrics with the default Prometheus registry.
// Safe to call multiple times; registration happens once.
func Init() {
	registerOnce.Do(func() {
		attemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credrotate_attempts_total",
				Help: "Total number of Initialize/Rotate invocations, by strategy and operation.",
			},
			[]string{"strategy", "operation"},
		)

		outcomesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credrotate_outcomes_total",
				Help: "Total number of rotation verdicts, by strategy and whether a rotation occurred.",
			},
			[]string{"strategy", "rotated"},
		)

		duration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credrotate_duration_seconds",
				Help:    "Duration of Initialize/Rotate calls in seconds.",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 30},
			},
			[]string{"strategy"},
		)

		recoveryTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credrotate_recovery_required_total",
				Help: "Total number of rotations that mutated the backing resource but failed to persist to the secret store.",
			},
			[]string{"strategy"},
		)

		registered = true
	})
}

// RecordAttempt records that a strategy's Initialize or Rotate was invoked.
func RecordAttempt(strategy, operation string) {
	if !registered {
		return
	}
	attemptsTotal.WithLabelValues(strategy, operation).Inc()
}

// RecordOutcome records the verdict of a rotation attempt and its latency.
func RecordOutcome(strategy string, rotated bool, elapsed time.Duration) {
	if !registered {
		return
	}
	rotatedLabel := "false"
	if rotated {
		rotatedLabel = "true"
	}
	outcomesTotal.WithLabelValues(strategy, rotatedLabel).Inc()
	duration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// RecordRecoveryRequired records a store-write failure following a
// successful external mutation, the one verdict that requires operator
// action to recover.
func RecordRecoveryRequired(strategy string) {
	if !registered {
		return
	}
	recoveryTotal.WithLabelValues(strategy).Inc()
}

// Registered reports whether Init has run.
func Registered() bool { return registered }
