// Package metrics exposes Prometheus instrumentation for the registration
// workflow. All collectors are registered on the default registry and served
// on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegistrationsCompleted counts attempts that reached the completed stage.
	RegistrationsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registration_completed_total",
		Help: "Number of registration attempts that completed successfully.",
	})

	// RegistrationsFailed counts terminal failures, labeled by the stage
	// that could not be completed.
	RegistrationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registration_failed_total",
		Help: "Number of registration attempts that failed, by failing stage.",
	}, []string{"stage"})

	// AccommodationDeferred counts boarder registrations that completed
	// without a room.
	AccommodationDeferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registration_accommodation_deferred_total",
		Help: "Number of registrations completed with accommodation deferred.",
	})

	// StageRetries counts transient-error retries, by stage.
	StageRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registration_stage_retries_total",
		Help: "Number of stage retries caused by transient persistence errors.",
	}, []string{"stage"})

	// SubmissionDuration tracks wall time of registration submissions,
	// resumed or fresh.
	SubmissionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "registration_submission_duration_seconds",
		Help:    "Duration of registration submission handling.",
		Buckets: prometheus.DefBuckets,
	})

	// PaymentVerifications counts bursar verification decisions.
	PaymentVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Number of payment verification decisions, by outcome.",
	}, []string{"decision"})
)
