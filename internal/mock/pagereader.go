package mock

import (
	"context"

	"docqa/internal/domain"
)

var _ domain.PageReader = (*PageReader)(nil)

// PageReader is a mock implementation of domain.PageReader.
type PageReader struct {
	ReadPagesFn func(ctx context.Context, path string, maxPages int) ([]string, error)
}

func (r *PageReader) ReadPages(ctx context.Context, path string, maxPages int) ([]string, error) {
	return r.ReadPagesFn(ctx, path, maxPages)
}
