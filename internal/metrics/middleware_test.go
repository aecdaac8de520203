package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testRouter() http.Handler {
	routes := func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		})
		r.Post("/search", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})
		r.Post("/recommend", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}

	r := chi.NewRouter()
	r.Use(Middleware())
	routes(r)
	r.Route("/api", routes)
	return r
}

func serve(h http.Handler, method, path string) {
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, http.NoBody))
}

func TestMiddleware_RecordsByRoute(t *testing.T) {
	h := testRouter()

	tests := []struct {
		method string
		path   string
		route  string
		status string
	}{
		{"GET", "/health", "/health", "200"},
		{"POST", "/search", "/search", "400"},
		{"POST", "/recommend", "/recommend", "404"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			counter := httpRequestsTotal.WithLabelValues(tc.method, tc.route, tc.status)
			before := testutil.ToFloat64(counter)

			serve(h, tc.method, tc.path)

			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("requests_total delta = %f, want 1", got)
			}
		})
	}

	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds observations")
	}
}

func TestMiddleware_CompatPrefixSharesSeries(t *testing.T) {
	h := testRouter()
	counter := httpRequestsTotal.WithLabelValues("POST", "/search", "400")
	before := testutil.ToFloat64(counter)

	serve(h, "POST", "/search")
	serve(h, "POST", "/api/search")

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("requests_total delta = %f, want 2", got)
	}
}

func TestMiddleware_Unmatched(t *testing.T) {
	h := testRouter()
	counter := httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")
	before := testutil.ToFloat64(counter)

	serve(h, "GET", "/does/not/exist")

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("requests_total delta = %f, want 1", got)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unmatched"},
		{"/*", "unmatched"},
		{"/api/*", "unmatched"},
		{"/api/recommend", "/recommend"},
		{"/apikeys", "/apikeys"},
		{"/health", "/health"},
		{"/metrics", "/metrics"},
	}

	for _, tc := range tests {
		if got := routeLabel(tc.input); got != tc.expected {
			t.Errorf("routeLabel(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestRegisterHTTPMetrics_Idempotent(t *testing.T) {
	RegisterHTTPMetrics()
	RegisterHTTPMetrics()
}
