package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	submissionsCreated    *prometheus.CounterVec
	submissionReviews     *prometheus.CounterVec
	pointsCreditedTotal   prometheus.Counter
	ledgerFailuresTotal   prometheus.Counter
	uploadRejectedTotal   *prometheus.CounterVec
	uploadLatencySeconds  prometheus.Histogram
	reviewEventsPublished *prometheus.CounterVec
	reviewStreamClients   prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		submissionsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_created_total",
			Help: "Submissions created, by submission type.",
		}, []string{"type"})

		submissionReviews = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_reviews_total",
			Help: "Review decisions, by outcome.",
		}, []string{"outcome"})

		pointsCreditedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "points_credited_total",
			Help: "Points credited to accounts by approved submissions.",
		})

		ledgerFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_failures_total",
			Help: "Approvals whose point credit failed after the status was persisted.",
		})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_rejected_total",
			Help: "Uploads rejected, by reason.",
		}, []string{"reason"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "upload_latency_seconds",
			Help:    "Time spent validating and storing uploads.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		})

		reviewEventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "review_events_published_total",
			Help: "Review events delivered, by source.",
		}, []string{"source"})

		reviewStreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "review_stream_clients_active",
			Help: "Websocket clients subscribed to review events.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			submissionsCreated,
			submissionReviews,
			pointsCreditedTotal,
			ledgerFailuresTotal,
			uploadRejectedTotal,
			uploadLatencySeconds,
			reviewEventsPublished,
			reviewStreamClients,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// SubmissionsCreated counts new submissions.
func SubmissionsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsCreated
}

// SubmissionReviews counts review outcomes.
func SubmissionReviews() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionReviews
}

// PointsCredited counts points added to accounts.
func PointsCredited() prometheus.Counter {
	RegisterMetrics()
	return pointsCreditedTotal
}

// LedgerFailures counts failed point credits.
func LedgerFailures() prometheus.Counter {
	RegisterMetrics()
	return ledgerFailuresTotal
}

// UploadRejected counts rejected uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency exposes the upload latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}

// ReviewEventsPublished counts review events delivered to subscribers.
func ReviewEventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return reviewEventsPublished
}

// ReviewStreamClients tracks connected websocket clients.
func ReviewStreamClients() prometheus.Gauge {
	RegisterMetrics()
	return reviewStreamClients
}
