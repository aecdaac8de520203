package mockembed

import (
	"context"
	"math"
	"testing"
)

func TestEmbed_Deterministic(t *testing.T) {
	e := NewEmbedder(16)
	a, err := e.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(context.Background(), "hello world")
	c, _ := e.Embed(context.Background(), "goodbye")

	if len(a.Embedding) != 16 {
		t.Fatalf("expected 16 dimensions, got %d", len(a.Embedding))
	}
	for i := range a.Embedding {
		if a.Embedding[i] != b.Embedding[i] {
			t.Fatalf("same text gave different vectors at %d", i)
		}
	}
	same := true
	for i := range a.Embedding {
		if a.Embedding[i] != c.Embedding[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts gave identical vectors")
	}
	if a.TotalTokens != 2 {
		t.Errorf("expected 2 tokens, got %d", a.TotalTokens)
	}
}

func TestEmbed_UnitLength(t *testing.T) {
	res, _ := NewEmbedder(0).Embed(context.Background(), "norm")
	if len(res.Embedding) != 384 {
		t.Fatalf("expected default 384 dimensions, got %d", len(res.Embedding))
	}
	var sum float64
	for _, v := range res.Embedding {
		sum += float64(v) * float64(v)
	}
	if math.Abs(sum-1) > 1e-4 {
		t.Errorf("expected unit vector, squared norm %f", sum)
	}
}

func TestBatchEmbed_MatchesSingle(t *testing.T) {
	e := NewEmbedder(8)
	batch, err := e.BatchEmbed(context.Background(), []string{"a b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Embeddings) != 2 || batch.TotalTokens != 3 {
		t.Fatalf("unexpected batch %+v", batch)
	}
	single, _ := e.Embed(context.Background(), "c")
	for i := range single.Embedding {
		if single.Embedding[i] != batch.Embeddings[1][i] {
			t.Fatalf("batch and single differ at %d", i)
		}
	}
}

func TestEmbed_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEmbedder(4).Embed(ctx, "x"); err == nil {
		t.Fatal("expected context error")
	}
}
