package mock

import (
	"context"

	"docqa/internal/domain"
)

var _ domain.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a mock implementation of domain.VectorIndex.
type VectorIndex struct {
	ResetFn    func(ctx context.Context, dimension int) error
	AddFn      func(ctx context.Context, vectors [][]float32) error
	TruncateFn func(ctx context.Context, n int) error
	SearchFn   func(ctx context.Context, query []float32, k int) ([]domain.Hit, error)
	LenFn      func() int
}

func (v *VectorIndex) Reset(ctx context.Context, dimension int) error {
	return v.ResetFn(ctx, dimension)
}

func (v *VectorIndex) Add(ctx context.Context, vectors [][]float32) error {
	return v.AddFn(ctx, vectors)
}

func (v *VectorIndex) Truncate(ctx context.Context, n int) error {
	return v.TruncateFn(ctx, n)
}

func (v *VectorIndex) Search(ctx context.Context, query []float32, k int) ([]domain.Hit, error) {
	return v.SearchFn(ctx, query, k)
}

func (v *VectorIndex) Len() int {
	return v.LenFn()
}
