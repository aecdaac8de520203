package ingest

import (
	"context"

	"github.com/kailas-cloud/vecgate/internal/domain"
)

// Index manages the backend collection being rebuilt (consumer interface, ISP).
type Index interface {
	DeleteIndex(ctx context.Context, name string) error
	ListIndexes(ctx context.Context) ([]string, error)
	CreateIndex(ctx context.Context, spec domain.IndexSpec) error
	Insert(ctx context.Context, name string, items []domain.VectorItem) error
}

// Embedder vectorizes chunks in batches.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// DocumentStore persists the id → text map.
type DocumentStore interface {
	Replace(ctx context.Context, entries map[string]string) error
}
