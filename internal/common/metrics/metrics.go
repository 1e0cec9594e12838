// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Assessment outcomes.
const (
	OutcomeApproved = "approved"
	OutcomeRejected = "rejected"
	OutcomeInvalid  = "invalid"
	OutcomeFailed   = "failed"
)

// Per-model prediction statuses.
const (
	PredictionSucceeded = "succeeded"
	PredictionFailed    = "failed"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	CreditAssessments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_assessments_total",
			Help: "Credit assessments by outcome",
		},
		[]string{"outcome"},
	)

	ModelPredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_model_predictions_total",
			Help: "Scorer invocations by model and status",
		},
		[]string{"model", "status"},
	)

	ModelDefaultRisk = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "credit_model_default_risk",
			Help:    "Default probability returned by each scorer",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 9),
		},
		[]string{"model"},
	)

	IncomeVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_income_verification_total",
			Help: "Income estimates by source",
		},
		[]string{"source"},
	)

	ConsensusDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_consensus_total",
			Help: "Assessments by scorer agreement",
		},
		[]string{"agreement"},
	)
)

// Agreement returns the consensus label for metrics.
func Agreement(unanimous bool) string {
	if unanimous {
		return "unanimous"
	}
	return "split"
}
