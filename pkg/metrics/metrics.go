package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ourhome_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// MembershipTransitions counts household membership operations and their
	// outcome (success|failure).
	MembershipTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ourhome_membership_transitions_total",
			Help: "Total number of household membership transitions",
		},
		[]string{"operation", "result"},
	)

	// OrphanedHouseholds tracks households left without any accepted member.
	OrphanedHouseholds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ourhome_orphaned_households_total",
			Help: "Number of households that lost their last member",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ourhome_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
