package domain

import (
	"context"
	"testing"
)

func TestEmbeddingUsage_Context(t *testing.T) {
	ctx, u := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddTokens(7)

	if u.TotalTokens != 7 || !u.Used {
		t.Errorf("usage = %+v", *u)
	}
}

func TestEmbeddingUsage_NilSafe(t *testing.T) {
	u := UsageFromContext(context.Background())
	if u != nil {
		t.Fatalf("expected nil usage, got %+v", u)
	}
	u.AddTokens(3) // must not panic
}
