package bootstrap

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bootstrap outcomes.
const (
	OutcomeActive    = "active"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
)

var (
	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootstrap_attempts_total",
			Help: "Container bootstrap attempts by outcome",
		},
		[]string{"outcome"},
	)

	bootstrapDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bootstrap_duration_seconds",
			Help:    "Time from create to publish of a root container",
			Buckets: prometheus.DefBuckets,
		},
	)

	activeContainers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bootstrap_active_containers",
			Help: "Root containers currently published",
		},
	)

	disposalFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bootstrap_disposal_failures_total",
			Help: "Attribute disposals that failed during cleanup",
		},
	)
)
