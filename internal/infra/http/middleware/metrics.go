package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	chatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_chat_requests_total",
			Help: "Total number of assistant chat requests",
		},
		[]string{"outcome"},
	)

	interactionsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lead_interactions_recorded_total",
			Help: "Total number of lead interactions persisted",
		},
	)

	crmSyncJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_sync_jobs_total",
			Help: "Total number of CRM sync jobs processed",
		},
		[]string{"result"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

func RecordChatRequest(outcome string) {
	chatRequests.WithLabelValues(outcome).Inc()
}

func RecordInteractions(n int) {
	interactionsRecorded.Add(float64(n))
}

func RecordCRMSyncJob(result string) {
	crmSyncJobs.WithLabelValues(result).Inc()
}
