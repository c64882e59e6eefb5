// Package metrics provides Prometheus metrics for the dose reference service.
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - rate_limiter_buckets_total: Gauge of tracked client buckets
//
// Calculation metrics:
//   - dose_calculations_total: Counter of evaluated categories
//   - dose_field_errors_total: Counter of skipped dose fields by drug and kind
//   - profile_validation_failures_total: Counter of rejected profiles
//
// Maintenance metrics:
//   - scheduled_job_runs_total: Counter with job and result labels
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Number of client rate limiter buckets currently tracked",
		},
	)

	DoseCalculationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dose_calculations_total",
			Help: "Total category dose calculations",
		},
		[]string{"category"},
	)

	DoseFieldErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dose_field_errors_total",
			Help: "Dose fields skipped because a covariate was missing or invalid",
		},
		[]string{"drug", "kind"},
	)

	ProfileValidationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "profile_validation_failures_total",
			Help: "Patient profiles rejected before calculation",
		},
	)

	ScheduledJobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_job_runs_total",
			Help: "Maintenance job runs by outcome",
		},
		[]string{"job", "result"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(DoseCalculationsTotal)
	prometheus.MustRegister(DoseFieldErrorsTotal)
	prometheus.MustRegister(ProfileValidationFailuresTotal)
	prometheus.MustRegister(ScheduledJobRunsTotal)
}
