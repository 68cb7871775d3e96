package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestMetricsRegistered verifies that all metrics are registered in the
// default registry without panicking.
func TestMetricsRegistered(t *testing.T) {
	expected := map[string]bool{
		"legichat_requests_total":                  false,
		"legichat_request_duration_seconds":        false,
		"legichat_streaming_connections_active":    false,
		"legichat_generations_total":               false,
		"legichat_generation_duration_seconds":     false,
		"legichat_tool_executions_total":           false,
		"legichat_tool_execution_duration_seconds": false,
		"legichat_catalog_searches_total":          false,
	}

	// Counters and histograms only appear after first observation, so
	// seed them all.
	RequestsTotal.WithLabelValues("GET", "threads", "2xx").Inc()
	RequestDuration.WithLabelValues("GET", "threads").Observe(0.1)
	GenerationsTotal.WithLabelValues("openai-chat", "test", "success").Inc()
	GenerationDuration.WithLabelValues("openai-chat", "test").Observe(0.1)
	ToolExecutionsTotal.WithLabelValues("get_legislator_info", "success").Inc()
	ToolExecutionDuration.WithLabelValues("get_legislator_info").Observe(0.01)
	CatalogSearchesTotal.WithLabelValues("match").Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}

	for name, found := range expected {
		if !found {
			t.Errorf("metric %q not found in default registry", name)
		}
	}
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	c, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("getting counter: %v", err)
	}
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("reading counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

// TestMiddlewareRecordsRequestCount verifies that the middleware
// increments the request counter for each served request.
func TestMiddlewareRecordsRequestCount(t *testing.T) {
	before := counterValue(t, RequestsTotal, "POST", "threads", "2xx")

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest("POST", "/v1/threads", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	after := counterValue(t, RequestsTotal, "POST", "threads", "2xx")
	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

// TestMiddlewareStatusClass verifies that error statuses land in the
// right class label.
func TestMiddlewareStatusClass(t *testing.T) {
	before := counterValue(t, RequestsTotal, "GET", "messages", "4xx")

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest("GET", "/v1/threads/thread_x/messages", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	after := counterValue(t, RequestsTotal, "GET", "messages", "4xx")
	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/v1/threads", "threads"},
		{"/v1/threads/thread_abc/stream", "stream"},
		{"/v1/threads/thread_abc/messages", "messages"},
		{"/healthz", "healthz"},
		{"/metrics", "metrics"},
		{"/favicon.ico", "other"},
	}
	for _, tt := range tests {
		if got := routeLabel(tt.path); got != tt.want {
			t.Errorf("routeLabel(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
