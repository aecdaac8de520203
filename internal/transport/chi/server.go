// Package chi exposes the gateway over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecgate/internal/domain"
	"github.com/kailas-cloud/vecgate/internal/domain/search/result"
	gatewayuc "github.com/kailas-cloud/vecgate/internal/usecase/gateway"
	healthuc "github.com/kailas-cloud/vecgate/internal/usecase/health"
	"github.com/kailas-cloud/vecgate/internal/wire"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ErrorCode is the machine-readable error code in an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest           ErrorCode = "bad_request"
	CodeUnauthorized         ErrorCode = "unauthorized"
	CodeDocumentNotFound     ErrorCode = "document_not_found"
	CodeVectorNotRecoverable ErrorCode = "vector_not_recoverable"
	CodeEmbeddingProviderErr ErrorCode = "embedding_provider_error"
	CodeBackendError         ErrorCode = "backend_error"
	CodeBackendUnavailable   ErrorCode = "backend_unavailable"
	CodeInternalError        ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// RecommendRequest is the body of POST /recommend.
type RecommendRequest struct {
	ID DocumentID `json:"id"`
	K  int        `json:"k,omitempty"`
}

// DocumentID accepts a JSON string or an integral JSON number.
type DocumentID string

// UnmarshalJSON implements json.Unmarshaler.
func (d *DocumentID) UnmarshalJSON(b []byte) error {
	v, err := wire.DecodeJSON(b)
	if err != nil {
		return err
	}
	if v == nil {
		*d = ""
		return nil
	}
	id, ok := wire.IDString(v)
	if !ok {
		return fmt.Errorf("id must be a string or a number, got %s", b)
	}
	*d = DocumentID(id)
	return nil
}

// ResultItem is one ranked document.
type ResultItem struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// ResultsResponse is the body of a successful search or recommend.
type ResultsResponse struct {
	Results    []ResultItem     `json:"results"`
	Offline    bool             `json:"offline,omitempty"`
	Diagnostic *wire.Diagnostic `json:"diagnostic,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the gateway routes.
type Server struct {
	gateway       *gatewayuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(gateway *gatewayuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		gateway: gateway,
		health:  health,
		logger:  logger,
	}
	// DocumentNotFound is matched before BackendUnavailable: a failed seed
	// lookup carries both.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrVectorNotRecoverable, http.StatusInternalServerError, CodeVectorNotRecoverable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderErr),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusServiceUnavailable, CodeBackendUnavailable),
		sentinelHandler(domain.ErrBackend, http.StatusBadGateway, CodeBackendError),
	}
	return s
}

// Routes registers the gateway routes on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Post("/search", s.Search)
	r.Post("/recommend", s.Recommend)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.gateway.Search(r.Context(), req.Query, req.K)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, domain.UsageFromContext(r.Context()))
	writeJSON(w, http.StatusOK, resultsResponse(resp))
}

// Recommend handles POST /recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.gateway.Recommend(r.Context(), string(req.ID), req.K)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultsResponse(resp))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		s.logger.Debug("invalid request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func resultsResponse(resp gatewayuc.Response) ResultsResponse {
	items := make([]ResultItem, len(resp.Results))
	for i := range resp.Results {
		items[i] = resultToItem(&resp.Results[i])
	}
	return ResultsResponse{Results: items, Offline: resp.Offline, Diagnostic: resp.Diagnostic}
}

func resultToItem(r *result.Result) ResultItem {
	return ResultItem{ID: r.ID(), Score: r.Score(), Text: r.Text()}
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-facing message without exposing internals.
func safeDomainMessage(err error) string {
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		return fe.Error()
	}
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrDocumentNotFound,
		domain.ErrVectorNotRecoverable,
		domain.ErrEmbeddingProviderError,
		domain.ErrBackendUnavailable,
		domain.ErrBackend,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
