package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/", want: "/"},
		{path: "/healthz", want: "/healthz"},
		{path: "/metrics", want: "/metrics"},
		{path: "/app.js", want: "/*"},
		{path: "/dashboard/settings", want: "/*"},
	}

	for _, tt := range tests {
		if got := normalizeRoute(tt.path); got != tt.want {
			t.Fatalf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	m := New(prometheus.NewRegistry())
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	for _, path := range []string{"/a.js", "/b/c"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/*", http.MethodGet, "500")); got != 2 {
		t.Fatalf("requests_total = %v, want 2", got)
	}
}

func TestMiddlewareDefaultsToOK(t *testing.T) {
	m := New(prometheus.NewRegistry())
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/healthz", http.MethodGet, "200")); got != 1 {
		t.Fatalf("requests_total = %v, want 1", got)
	}
}

func TestNewProcessRegistryGathers(t *testing.T) {
	registry := NewProcessRegistry()
	New(registry)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected metric families")
	}
}
