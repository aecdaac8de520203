// Package gateway turns queries and seed documents into ranked, annotated results.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecgate/internal/domain"
	"github.com/kailas-cloud/vecgate/internal/domain/search/hit"
	"github.com/kailas-cloud/vecgate/internal/domain/search/normalize"
	"github.com/kailas-cloud/vecgate/internal/domain/search/result"
	"github.com/kailas-cloud/vecgate/internal/domain/search/vector"
	"github.com/kailas-cloud/vecgate/internal/metrics"
	"github.com/kailas-cloud/vecgate/internal/wire"
)

const noItemList = "response carries no item list"

// Config holds gateway settings.
type Config struct {
	Collection string
	DefaultK   int
	MaxK       int
}

// Response is a ranked result list. Diagnostic is set when the backend
// payload yielded no item list; Results is then empty, never nil.
type Response struct {
	Results    []result.Result
	Diagnostic *wire.Diagnostic
	Offline    bool
}

// Service orchestrates embedding, backend search, normalization and document lookup.
type Service struct {
	backend Backend
	embed   Embedder
	texts   Texts
	cfg     Config
	logger  *zap.Logger
}

// New creates a gateway service.
func New(backend Backend, embed Embedder, texts Texts, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = 5
	}
	if cfg.MaxK < cfg.DefaultK {
		cfg.MaxK = cfg.DefaultK
	}
	return &Service{backend: backend, embed: embed, texts: texts, cfg: cfg, logger: logger}
}

// Search embeds query and returns the nearest documents.
func (s *Service) Search(ctx context.Context, query string, k int) (Response, error) {
	if strings.TrimSpace(query) == "" {
		return Response{}, domain.NewMissingField("query")
	}

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return Response{}, fmt.Errorf("vectorize query: %w", err)
	}
	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

	return s.search(ctx, emb.Embedding, s.limit(k), "")
}

// Recommend returns neighbours of the stored document id, excluding the document itself.
//
// The backend is asked for k+1 hits and the list is not trimmed after the seed
// is dropped, so up to k+1 hits come back when the seed is not among them.
func (s *Service) Recommend(ctx context.Context, id string, k int) (Response, error) {
	if id == "" {
		return Response{}, domain.NewMissingField("id")
	}

	payload, err := s.backend.GetVector(ctx, s.cfg.Collection, id)
	if err != nil {
		return Response{}, fmt.Errorf("fetch seed: %w", err)
	}

	vec, strategy, err := vector.Extract(payload.Value)
	if err != nil {
		metrics.VectorStrategiesTotal.WithLabelValues("none").Inc()
		s.logger.Warn("seed vector not recoverable",
			zap.String("id", id),
			zap.String("content_type", payload.ContentType),
			zap.Int("bytes", len(payload.Raw)),
		)
		return Response{}, fmt.Errorf("seed %q: %w", id, err)
	}
	metrics.VectorStrategiesTotal.WithLabelValues(strategy).Inc()

	return s.search(ctx, vec, s.limit(k)+1, id)
}

func (s *Service) search(ctx context.Context, vec []float32, k int, exclude string) (Response, error) {
	payload, err := s.backend.Search(ctx, s.cfg.Collection, vec, k)
	if err != nil {
		if errors.Is(err, domain.ErrDecode) {
			s.logger.Warn("search response undecodable, returning diagnostic", zap.Error(err))
			return s.diagnostic(err.Error(), payload), nil
		}
		return Response{}, fmt.Errorf("search: %w", err)
	}

	outcome := normalize.Normalize(payload.Value)
	metrics.ResultShapesTotal.WithLabelValues(outcome.Shape).Inc()
	if outcome.Skipped > 0 {
		metrics.ResultItemsSkippedTotal.Add(float64(outcome.Skipped))
		s.logger.Debug("skipped unreadable result items", zap.Int("skipped", outcome.Skipped))
	}
	if !outcome.Recognized() {
		s.logger.Warn(noItemList, zap.String("content_type", payload.ContentType))
		return s.diagnostic(noItemList, payload), nil
	}

	return Response{
		Results: s.annotate(outcome.Hits, exclude),
		Offline: payload.Substitute,
	}, nil
}

func (s *Service) annotate(hits []hit.Hit, exclude string) []result.Result {
	out := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		if exclude != "" && h.ID() == exclude {
			continue
		}
		out = append(out, result.New(h.ID(), h.Score(), s.texts.Text(h.ID())))
	}
	return out
}

func (s *Service) diagnostic(reason string, p wire.Payload) Response {
	return Response{
		Results:    []result.Result{},
		Diagnostic: wire.NewDiagnostic(reason, p.ContentType, p.Raw),
		Offline:    p.Substitute,
	}
}

// limit applies the default and the upper bound to a requested k.
func (s *Service) limit(k int) int {
	switch {
	case k <= 0:
		return s.cfg.DefaultK
	case k > s.cfg.MaxK:
		return s.cfg.MaxK
	default:
		return k
	}
}
