package slog

import (
	"context"
	"log/slog"
	"time"

	"docqa/internal/domain"
)

// Ensure LoggingEmbedder implements domain.Embedder.
var _ domain.Embedder = (*LoggingEmbedder)(nil)

// LoggingEmbedder wraps an Embedder with debug logging.
type LoggingEmbedder struct {
	next   domain.Embedder
	logger *slog.Logger
}

// NewLoggingEmbedder creates a new LoggingEmbedder.
func NewLoggingEmbedder(next domain.Embedder, logger *slog.Logger) *LoggingEmbedder {
	return &LoggingEmbedder{next: next, logger: logger}
}

func (e *LoggingEmbedder) Name() string { return e.next.Name() }

func (e *LoggingEmbedder) Dimension() int { return e.next.Dimension() }

// Embed delegates to the wrapped embedder and logs the batch.
func (e *LoggingEmbedder) Embed(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	defer func(begin time.Time) {
		e.logger.Debug("embed",
			"embedder", e.next.Name(),
			"texts", len(texts),
			"vectors", len(vectors),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Embed(ctx, texts)
}
