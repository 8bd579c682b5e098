package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/repos/{name}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, name := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/repos/"+name, nil))
	}

	got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/repos/{name}", http.MethodGet, "418"))
	if got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}
}

func TestRecordGatewayCall(t *testing.T) {
	m := New()
	m.RecordGatewayCall("list_repositories", "ok", 10*time.Millisecond)
	m.RecordGatewayCall("list_repositories", "unauthorized", time.Millisecond)

	if got := testutil.ToFloat64(m.GatewayCalls.WithLabelValues("list_repositories", "ok")); got != 1 {
		t.Errorf("ok calls = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.GatewayCalls.WithLabelValues("list_repositories", "unauthorized")); got != 1 {
		t.Errorf("unauthorized calls = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RecordRepositoryLink()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ansuz_repository_links 1") {
		t.Errorf("gauge missing from output")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordGatewayCall("x", "ok", time.Second)
	m.RecordRepositoryLink()

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
}
