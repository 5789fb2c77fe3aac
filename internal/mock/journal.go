package mock

import (
	"context"

	"docqa/internal/domain"
)

var _ domain.Journal = (*Journal)(nil)

// Journal is a mock implementation of domain.Journal.
type Journal struct {
	LoadFn   func(ctx context.Context) ([]domain.Chunk, error)
	AppendFn func(ctx context.Context, chunks []domain.Chunk) error
	CloseFn  func() error
}

func (j *Journal) Load(ctx context.Context) ([]domain.Chunk, error) {
	return j.LoadFn(ctx)
}

func (j *Journal) Append(ctx context.Context, chunks []domain.Chunk) error {
	return j.AppendFn(ctx, chunks)
}

func (j *Journal) Close() error {
	return j.CloseFn()
}
