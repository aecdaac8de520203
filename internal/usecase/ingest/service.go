// Package ingest rebuilds the backend collection and the document map from text files.
package ingest

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecgate/internal/domain"
)

// Config holds ingestion settings.
type Config struct {
	Collection     string
	SpaceType      string
	Precision      string
	M              int
	EFConstruction int
	BatchSize      int
	PollAttempts   int
	PollInterval   time.Duration
}

// Report summarizes a finished ingestion.
type Report struct {
	Chunks    int
	Dimension int
	Batches   int
	Tokens    int
}

// Service runs ingestion.
type Service struct {
	index  Index
	embed  Embedder
	docs   DocumentStore
	cfg    Config
	logger *zap.Logger
}

// New creates an ingestion service.
func New(index Index, embed Embedder, docs DocumentStore, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 256
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 5
	}
	return &Service{index: index, embed: embed, docs: docs, cfg: cfg, logger: logger}
}

// Run embeds chunks and replaces the collection and the document map with them.
// Chunk i is stored under the id strconv.Itoa(i).
func (s *Service) Run(ctx context.Context, chunks []string) (Report, error) {
	if len(chunks) == 0 {
		return Report{}, fmt.Errorf("no chunks to ingest: %w", domain.ErrEmptyBatch)
	}
	name := s.cfg.Collection

	s.logger.Info("embedding chunks", zap.Int("chunks", len(chunks)))
	emb, err := s.embed.BatchEmbed(ctx, chunks)
	if err != nil {
		return Report{}, fmt.Errorf("embed chunks: %w", err)
	}
	if len(emb.Embeddings) != len(chunks) {
		return Report{}, fmt.Errorf("embed chunks: got %d vectors for %d chunks: %w",
			len(emb.Embeddings), len(chunks), domain.ErrEmbeddingProviderError)
	}
	dim := len(emb.Embeddings[0])
	for i, vec := range emb.Embeddings {
		if err := domain.CheckDimension(vec, dim); err != nil {
			return Report{}, fmt.Errorf("chunk %d: %w", i, err)
		}
	}

	if err := s.reset(ctx, name); err != nil {
		return Report{}, err
	}

	spec := domain.IndexSpec{
		Name:           name,
		Dimension:      dim,
		SpaceType:      s.cfg.SpaceType,
		Precision:      s.cfg.Precision,
		M:              s.cfg.M,
		EFConstruction: s.cfg.EFConstruction,
	}
	if err := s.index.CreateIndex(ctx, spec); err != nil {
		return Report{}, fmt.Errorf("create collection %s: %w", name, err)
	}
	s.logger.Info("collection created", zap.String("collection", name), zap.Int("dimension", dim))

	entries := make(map[string]string, len(chunks))
	items := make([]domain.VectorItem, len(chunks))
	for i, text := range chunks {
		id := strconv.Itoa(i)
		entries[id] = text
		items[i] = domain.VectorItem{ID: id, Vector: emb.Embeddings[i]}
	}
	if err := s.docs.Replace(ctx, entries); err != nil {
		return Report{}, fmt.Errorf("save document map: %w", err)
	}

	batches := 0
	for batch := range slices.Chunk(items, s.cfg.BatchSize) {
		if err := s.index.Insert(ctx, name, batch); err != nil {
			return Report{}, fmt.Errorf("insert batch %d: %w", batches, err)
		}
		batches++
	}

	s.logger.Info("ingestion complete",
		zap.String("collection", name),
		zap.Int("chunks", len(chunks)),
		zap.Int("batches", batches),
		zap.Int("total_tokens", emb.TotalTokens),
	)
	return Report{Chunks: len(chunks), Dimension: dim, Batches: batches, Tokens: emb.TotalTokens}, nil
}

// reset deletes the collection and waits for it to leave the listing.
// A failed delete or a collection that lingers is logged, not fatal.
func (s *Service) reset(ctx context.Context, name string) error {
	if err := s.index.DeleteIndex(ctx, name); err != nil {
		s.logger.Warn("delete collection failed, continuing", zap.String("collection", name), zap.Error(err))
	}

	for attempt := 1; attempt <= s.cfg.PollAttempts; attempt++ {
		names, err := s.index.ListIndexes(ctx)
		if err != nil {
			s.logger.Warn("list collections failed", zap.Error(err))
			return nil
		}
		if !slices.Contains(names, name) {
			return nil
		}
		if attempt == s.cfg.PollAttempts {
			break
		}
		s.logger.Info("waiting for deletion", zap.String("collection", name), zap.Int("attempt", attempt))

		timer := time.NewTimer(s.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("wait for deletion: %w", ctx.Err())
		case <-timer.C:
		}
	}
	s.logger.Warn("collection still listed after delete", zap.String("collection", name))
	return nil
}
