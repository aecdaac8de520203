package gateway

import (
	"context"

	"github.com/kailas-cloud/vecgate/internal/domain"
	"github.com/kailas-cloud/vecgate/internal/wire"
)

// Backend issues search and record lookups against the vector index (consumer interface, ISP).
type Backend interface {
	Search(ctx context.Context, name string, vector []float32, k int) (wire.Payload, error)
	GetVector(ctx context.Context, name, id string) (wire.Payload, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Texts resolves document ids to their source text.
type Texts interface {
	Text(id string) string
}
