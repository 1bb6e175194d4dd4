package observability

import (
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	t.Run("registers without collisions", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		metrics := NewMetrics(registry)
		if metrics == nil {
			t.Fatal("NewMetrics returned nil")
		}
		metrics.InvoicesCreatedTotal.Inc()
		families, err := registry.Gather()
		if err != nil {
			t.Fatalf("Gather failed: %v", err)
		}
		if len(families) == 0 {
			t.Error("Expected gathered metric families")
		}
	})

	t.Run("double registration panics", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		NewMetrics(registry)
		defer func() {
			if recover() == nil {
				t.Error("Expected panic on duplicate registration")
			}
		}()
		NewMetrics(registry)
	})
}

func TestObserveRender(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.ObserveRender("pdf", 10*time.Millisecond, nil)
	metrics.ObserveRender("pdf", 5*time.Millisecond, nil)
	metrics.ObserveRender("csv", time.Millisecond, errors.New("bad"))

	if got := testutil.ToFloat64(metrics.DocumentsRenderedTotal.WithLabelValues("pdf")); got != 2 {
		t.Errorf("Expected 2 pdf renders, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.RenderFailuresTotal.WithLabelValues("csv")); got != 1 {
		t.Errorf("Expected 1 csv failure, got %v", got)
	}
	if count := testutil.CollectAndCount(metrics.RenderDuration); count != 2 {
		t.Errorf("Expected 2 duration series, got %d", count)
	}
}

func TestObserveJob(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.ObserveJob("expire_trials", nil)
	metrics.ObserveJob("expire_trials", errors.New("db down"))

	expected := `
# HELP tally_job_runs_total Total number of background job runs
# TYPE tally_job_runs_total counter
tally_job_runs_total{job="expire_trials",status="error"} 1
tally_job_runs_total{job="expire_trials",status="success"} 1
`
	if err := testutil.CollectAndCompare(metrics.JobRunsTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("Unexpected metrics: %v", err)
	}
}

func TestRecordDBStats(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.RecordDBStats(sql.DBStats{InUse: 3, Idle: 2, WaitCount: 7})

	if got := testutil.ToFloat64(metrics.DBConnectionsActive); got != 3 {
		t.Errorf("Expected 3 active, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.DBConnectionsIdle); got != 2 {
		t.Errorf("Expected 2 idle, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.DBConnectionsWaitCount); got != 7 {
		t.Errorf("Expected 7 waits, got %v", got)
	}
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	router := mux.NewRouter()
	router.Use(HTTPMetricsMiddleware(metrics))
	router.HandleFunc("/api/invoices/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}).Methods("GET")

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/invoices/"+id, nil))
	}

	expected := `
# HELP tally_http_requests_total Total number of HTTP requests
# TYPE tally_http_requests_total counter
tally_http_requests_total{method="GET",route="/api/invoices/{id}",status="404"} 2
`
	if err := testutil.CollectAndCompare(metrics.HTTPRequestsTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("Unexpected metrics: %v", err)
	}
}

func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	metrics.LoginThrottledTotal.Inc()

	serveMux := http.NewServeMux()
	RegisterMetricsEndpoint(serveMux, registry)

	rec := httptest.NewRecorder()
	serveMux.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(string(body), "tally_login_throttled_total 1") {
		t.Error("Expected login throttle counter in output")
	}
}
