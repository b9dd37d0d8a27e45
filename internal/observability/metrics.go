package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	evaluationsTotal      *prometheus.CounterVec
	evaluationSeconds     *prometheus.HistogramVec
	cooldownRejections    prometheus.Counter
	submissionEventsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evaluations_total",
			Help: "Completed evaluations by mode and verdict status.",
		}, []string{"mode", "status"})

		evaluationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evaluation_duration_seconds",
			Help:    "Time spent waiting on the judge for one evaluation.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"mode"})

		cooldownRejections = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "submit_cooldown_rejections_total",
			Help: "Submissions rejected because the caller is still cooling down.",
		})

		submissionEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_events_total",
			Help: "Judged submission events published to the broker.",
		}, []string{"result"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			evaluationsTotal,
			evaluationSeconds,
			cooldownRejections,
			submissionEventsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Evaluations counts finished evaluations.
func Evaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsTotal
}

// EvaluationLatency observes judge round-trip time per evaluation.
func EvaluationLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return evaluationSeconds
}

// CooldownRejections counts submissions refused by the cooldown guard.
func CooldownRejections() prometheus.Counter {
	RegisterMetrics()
	return cooldownRejections
}

// SubmissionEvents counts published submission events.
func SubmissionEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionEventsTotal
}
