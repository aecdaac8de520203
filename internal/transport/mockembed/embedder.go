// Package mockembed provides a deterministic embedding provider for running the gateway without a model.
package mockembed

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/vecgate/internal/domain"
)

// Embedder maps each text to a unit vector seeded by its hash, so equal texts embed identically.
type Embedder struct {
	dimensions int
}

// NewEmbedder returns a mock provider producing vectors of the given dimension (384 when unset).
func NewEmbedder(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &Embedder{dimensions: dimensions}
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    e.vector(text),
		PromptTokens: tokens(text),
		TotalTokens:  tokens(text),
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	if err := ctx.Err(); err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	res := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, text := range texts {
		res.Embeddings[i] = e.vector(text)
		res.PromptTokens += tokens(text)
	}
	res.TotalTokens = res.PromptTokens
	return res, nil
}

// HealthCheck always succeeds.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

// Dimensions returns the embedding dimension.
func (e *Embedder) Dimensions() int { return e.dimensions }

func (e *Embedder) vector(text string) []float32 {
	seed := xxhash.Sum64String(text)
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	emb := make([]float32, e.dimensions)
	var sum float64
	for i := range emb {
		v := rng.NormFloat64()
		emb[i] = float32(v)
		sum += v * v
	}
	if sum > 0 {
		norm := 1 / math.Sqrt(sum)
		for i := range emb {
			emb[i] *= float32(norm)
		}
	}
	return emb
}

func tokens(text string) int {
	return len(strings.Fields(text))
}
