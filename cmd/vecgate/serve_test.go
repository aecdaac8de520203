package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecgate/internal/backend"
	"github.com/kailas-cloud/vecgate/internal/config"
	"github.com/kailas-cloud/vecgate/internal/docmap"
	chiTransport "github.com/kailas-cloud/vecgate/internal/transport/chi"
	"github.com/kailas-cloud/vecgate/internal/transport/endee"
	gatewayuc "github.com/kailas-cloud/vecgate/internal/usecase/gateway"
	healthuc "github.com/kailas-cloud/vecgate/internal/usecase/health"
)

const testKey = "secret"

// offlineRouter wires the full stack against an unreachable backend and the mock provider.
func offlineRouter(t *testing.T) http.Handler {
	t.Helper()

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()

	client, err := endee.New(endee.Config{BaseURL: closed.URL})
	if err != nil {
		t.Fatal(err)
	}
	session := backend.NewSession(context.Background(), client, backend.Config{Dimension: 8})

	embCfg := config.EmbeddingConfig{Provider: "mock", Model: "mock", Dimensions: 8}
	base := newProvider(embCfg, zap.NewNop())
	embedder := buildEmbedder(base, embCfg, "query: ", nil, zap.NewNop())

	docs := docmap.New(map[string]string{"0": "zero", "1": "one"})
	gw := gatewayuc.New(session, embedder, docs, gatewayuc.Config{Collection: "semantic_docs"}, zap.NewNop())
	health := healthuc.New(session, newEmbeddingHealthChecker(base), nil)

	return newRouter(chiTransport.NewServer(gw, health, zap.NewNop()), []string{testKey}, zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, path, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+testKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_ExemptPaths(t *testing.T) {
	h := offlineRouter(t)

	for _, path := range []string{"/health", "/api/health", "/metrics"} {
		if rec := do(t, h, http.MethodGet, path, "", false); rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestRouter_SearchRequiresAuth(t *testing.T) {
	h := offlineRouter(t)

	for _, path := range []string{"/search", "/api/search"} {
		if rec := do(t, h, http.MethodPost, path, `{"query":"hi"}`, false); rec.Code != http.StatusUnauthorized {
			t.Errorf("POST %s without key = %d, want 401", path, rec.Code)
		}
	}
}

func TestRouter_SearchOffline(t *testing.T) {
	h := offlineRouter(t)

	rec := do(t, h, http.MethodPost, "/api/search", `{"query":"hello world"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID")
	}
	if rec.Header().Get("X-Embedding-Tokens") == "" {
		t.Error("expected X-Embedding-Tokens")
	}
	if !strings.Contains(rec.Body.String(), `"offline":true`) || !strings.Contains(rec.Body.String(), `"zero"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestRouter_RecommendOffline(t *testing.T) {
	h := offlineRouter(t)

	rec := do(t, h, http.MethodPost, "/recommend", `{"id":1}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), `"id":"1"`) {
		t.Errorf("seed must be excluded: %s", rec.Body.String())
	}
}
