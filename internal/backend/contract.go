package backend

import (
	"context"

	"github.com/kailas-cloud/vecgate/internal/domain"
	"github.com/kailas-cloud/vecgate/internal/transport/endee"
)

// peer is the consumer interface over the vector-index HTTP client (ISP).
type peer interface {
	CreateIndex(ctx context.Context, spec domain.IndexSpec) (endee.Response, error)
	DeleteIndex(ctx context.Context, name string) (endee.Response, error)
	Insert(ctx context.Context, name string, items []domain.VectorItem) (endee.Response, error)
	Search(ctx context.Context, name string, vector []float32, k int) (endee.Response, error)
	GetVector(ctx context.Context, name, id string) (endee.Response, error)
	ListIndexes(ctx context.Context) (endee.Response, error)
	Probe(ctx context.Context) error
}
