package slog

import (
	"context"
	"log/slog"
	"time"

	"docqa/internal/domain"
)

// Ensure LoggingVectorIndex implements domain.VectorIndex.
var _ domain.VectorIndex = (*LoggingVectorIndex)(nil)

// LoggingVectorIndex wraps a VectorIndex with debug logging of mutations and
// searches.
type LoggingVectorIndex struct {
	next   domain.VectorIndex
	logger *slog.Logger
}

// NewLoggingVectorIndex creates a new LoggingVectorIndex.
func NewLoggingVectorIndex(next domain.VectorIndex, logger *slog.Logger) *LoggingVectorIndex {
	return &LoggingVectorIndex{next: next, logger: logger}
}

func (x *LoggingVectorIndex) Reset(ctx context.Context, dimension int) (err error) {
	defer func() {
		x.logger.Debug("index reset", "dimension", dimension, "err", err)
	}()
	return x.next.Reset(ctx, dimension)
}

func (x *LoggingVectorIndex) Add(ctx context.Context, vectors [][]float32) (err error) {
	defer func(begin time.Time) {
		x.logger.Debug("index add", "vectors", len(vectors), "duration", time.Since(begin), "err", err)
	}(time.Now())
	return x.next.Add(ctx, vectors)
}

func (x *LoggingVectorIndex) Truncate(ctx context.Context, n int) (err error) {
	defer func() {
		x.logger.Warn("index truncate", "len", n, "err", err)
	}()
	return x.next.Truncate(ctx, n)
}

func (x *LoggingVectorIndex) Search(ctx context.Context, query []float32, k int) (hits []domain.Hit, err error) {
	defer func(begin time.Time) {
		x.logger.Debug("index search", "k", k, "hits", len(hits), "duration", time.Since(begin), "err", err)
	}(time.Now())
	return x.next.Search(ctx, query, k)
}

func (x *LoggingVectorIndex) Len() int { return x.next.Len() }
