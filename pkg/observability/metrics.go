package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Invoice metrics
	InvoicesCreatedTotal   prometheus.Counter
	DocumentsRenderedTotal *prometheus.CounterVec
	RenderFailuresTotal    *prometheus.CounterVec
	RenderDuration         *prometheus.HistogramVec
	PlanDenialsTotal       *prometheus.CounterVec

	// Delivery and billing metrics
	EmailsSentTotal     *prometheus.CounterVec
	WebhookEventsTotal  *prometheus.CounterVec
	LoginThrottledTotal prometheus.Counter

	// Background job metrics
	TrialsExpiredTotal  prometheus.Counter
	SessionsPurgedTotal prometheus.Counter
	JobRunsTotal        *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive    prometheus.Gauge
	DBConnectionsIdle      prometheus.Gauge
	DBConnectionsWaitCount prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tally_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tally_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "route"},
		),

		InvoicesCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tally_invoices_created_total",
				Help: "Total number of invoices created",
			},
		),
		DocumentsRenderedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_documents_rendered_total",
				Help: "Total number of documents rendered",
			},
			[]string{"format"},
		),
		RenderFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_render_failures_total",
				Help: "Total number of failed document renders",
			},
			[]string{"format"},
		),
		RenderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tally_render_duration_seconds",
				Help:    "Document render duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"format"},
		),
		PlanDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_plan_denials_total",
				Help: "Total number of requests denied by the plan gate",
			},
			[]string{"resource"},
		),

		EmailsSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_emails_sent_total",
				Help: "Total number of invoice emails by delivery status",
			},
			[]string{"status"},
		),
		WebhookEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_billing_webhook_events_total",
				Help: "Total number of billing webhook events",
			},
			[]string{"type", "outcome"},
		),
		LoginThrottledTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tally_login_throttled_total",
				Help: "Total number of login attempts rejected by the rate limiter",
			},
		),

		TrialsExpiredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tally_trials_expired_total",
				Help: "Total number of Pro trials expired",
			},
		),
		SessionsPurgedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tally_sessions_purged_total",
				Help: "Total number of expired sessions deleted",
			},
		),
		JobRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_job_runs_total",
				Help: "Total number of background job runs",
			},
			[]string{"job", "status"},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tally_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tally_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBConnectionsWaitCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tally_db_connections_wait_count",
				Help: "Total number of connections waited for",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.InvoicesCreatedTotal,
		m.DocumentsRenderedTotal,
		m.RenderFailuresTotal,
		m.RenderDuration,
		m.PlanDenialsTotal,
		m.EmailsSentTotal,
		m.WebhookEventsTotal,
		m.LoginThrottledTotal,
		m.TrialsExpiredTotal,
		m.SessionsPurgedTotal,
		m.JobRunsTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.DBConnectionsWaitCount,
	)

	return m
}

// ObserveRender records one render attempt
func (m *Metrics) ObserveRender(format string, duration time.Duration, err error) {
	m.RenderDuration.WithLabelValues(format).Observe(duration.Seconds())
	if err != nil {
		m.RenderFailuresTotal.WithLabelValues(format).Inc()
		return
	}
	m.DocumentsRenderedTotal.WithLabelValues(format).Inc()
}

// ObserveJob records one background job run
func (m *Metrics) ObserveJob(job string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.JobRunsTotal.WithLabelValues(job, status).Inc()
}

// RecordDBStats copies connection pool statistics into the gauges
func (m *Metrics) RecordDBStats(stats sql.DBStats) {
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
	m.DBConnectionsWaitCount.Set(float64(stats.WaitCount))
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// routeLabel returns the matched route template so IDs do not explode label cardinality
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// It must be installed with Router.Use so the matched route is known.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
