package mock

import (
	"context"

	"docqa/internal/domain"
)

var _ domain.Embedder = (*Embedder)(nil)

// Embedder is a mock implementation of domain.Embedder.
type Embedder struct {
	NameFn      func() string
	DimensionFn func() int
	EmbedFn     func(ctx context.Context, texts []string) ([][]float32, error)
}

func (e *Embedder) Name() string {
	return e.NameFn()
}

func (e *Embedder) Dimension() int {
	return e.DimensionFn()
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.EmbedFn(ctx, texts)
}
