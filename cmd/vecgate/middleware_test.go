package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/vecgate/internal/domain"
	logpkg "github.com/kailas-cloud/vecgate/internal/logger"
	chiTransport "github.com/kailas-cloud/vecgate/internal/transport/chi"
)

func TestJSONRecoverer(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body chiTransport.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != chiTransport.CodeInternalError || body.Message != "internal error" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestWideEventMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	fallback := zap.NewNop()
	var sawLogger, sawUsage bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = logpkg.FromContext(r.Context(), fallback) != fallback
		usage := domain.UsageFromContext(r.Context())
		sawUsage = usage != nil
		usage.AddTokens(7)
		w.WriteHeader(http.StatusTeapot)
	})
	h := chiMiddleware.RequestID(wideEventMiddleware(zap.New(core))(inner))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search", nil))

	if !sawLogger || !sawUsage {
		t.Fatalf("context not populated: logger=%v usage=%v", sawLogger, sawUsage)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one canonical log line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) {
		t.Errorf("status field = %v", fields["status"])
	}
	if fields["embedding_tokens"] != int64(7) {
		t.Errorf("embedding_tokens field = %v", fields["embedding_tokens"])
	}
	if fields["request_id"] == "" {
		t.Error("expected request_id field")
	}
}

func TestWideEventMiddleware_NoEmbedding(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := wideEventMiddleware(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log line, got %d", len(entries))
	}
	if _, ok := entries[0].ContextMap()["embedding_tokens"]; ok {
		t.Error("embedding_tokens must be omitted when nothing was embedded")
	}
}
