// Package repository holds the global chunk sequence together with the
// vector index built from it. The i-th vector in the index always belongs to
// the i-th chunk; both only ever grow, and only through Append.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"docqa/internal/domain"
)

// Repository is the system of record for chunk text and the owner of the
// positional pairing between chunks and vectors. Ingestion takes the write
// lock; queries share the read lock.
type Repository struct {
	journal domain.Journal
	index   domain.VectorIndex

	mu     sync.RWMutex
	chunks []domain.Chunk
	byDoc  map[string][]int
	docs   []string
}

// New returns an empty repository. Call Open to restore persisted state.
func New(journal domain.Journal, index domain.VectorIndex) *Repository {
	return &Repository{
		journal: journal,
		index:   index,
		byDoc:   make(map[string][]int),
	}
}

// Open loads the persisted chunk sequence and rebuilds the index by
// re-embedding every chunk in order. It returns the number of chunks restored.
func (r *Repository) Open(ctx context.Context, embedder domain.Embedder) (int, error) {
	chunks, err := r.journal.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading chunk journal: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.index.Reset(ctx, embedder.Dimension()); err != nil {
		return 0, fmt.Errorf("resetting index: %w", err)
	}
	r.chunks = nil
	r.byDoc = make(map[string][]int)
	r.docs = nil
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("re-embedding %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: %d chunks, %d vectors", domain.ErrLengthMismatch, len(chunks), len(vectors))
	}
	if err := r.index.Add(ctx, vectors); err != nil {
		return 0, fmt.Errorf("rebuilding index: %w", err)
	}
	r.remember(chunks)
	return len(chunks), nil
}

// Append stores chunks and their vectors as one unit. Vectors go into the
// index first; if the journal then fails they are truncated away again, so the
// index never holds a vector without its chunk.
func (r *Repository) Append(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", domain.ErrLengthMismatch, len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	base := len(r.chunks)
	if n := r.index.Len(); n != base {
		return fmt.Errorf("index holds %d vectors for %d chunks", n, base)
	}
	if err := r.index.Add(ctx, vectors); err != nil {
		return fmt.Errorf("adding vectors: %w", err)
	}
	if err := r.journal.Append(ctx, chunks); err != nil {
		if terr := r.index.Truncate(ctx, base); terr != nil {
			return errors.Join(fmt.Errorf("persisting chunks: %w", err), fmt.Errorf("rolling back index: %w", terr))
		}
		return fmt.Errorf("persisting chunks: %w", err)
	}
	r.remember(chunks)
	return nil
}

func (r *Repository) remember(chunks []domain.Chunk) {
	for _, c := range chunks {
		if _, seen := r.byDoc[c.DocumentID]; !seen {
			r.docs = append(r.docs, c.DocumentID)
		}
		r.byDoc[c.DocumentID] = append(r.byDoc[c.DocumentID], len(r.chunks))
		r.chunks = append(r.chunks, c)
	}
}

// Len returns the number of chunks across all documents.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chunks)
}

// IndexLen returns the number of vectors in the index.
func (r *Repository) IndexLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Len()
}

// At returns the chunk at a global position.
func (r *Repository) At(position int) (domain.Chunk, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if position < 0 || position >= len(r.chunks) {
		return domain.Chunk{}, false
	}
	return r.chunks[position], true
}

// Chunks returns a document's chunks in ingestion order.
func (r *Repository) Chunks(documentID string) []domain.Chunk {
	r.mu.RLock()
	defer r.mu.RUnlock()
	positions := r.byDoc[documentID]
	out := make([]domain.Chunk, len(positions))
	for i, p := range positions {
		out[i] = r.chunks[p]
	}
	return out
}

// Documents returns document ids in ingestion order.
func (r *Repository) Documents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.docs...)
}

// ActiveDocument returns the document owning the last chunk in the sequence,
// which is the most recently ingested document.
func (r *Repository) ActiveDocument() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.chunks) == 0 {
		return "", false
	}
	return r.chunks[len(r.chunks)-1].DocumentID, true
}

// Search runs a nearest-neighbour query against the index.
func (r *Repository) Search(ctx context.Context, query []float32, k int) ([]domain.Hit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Search(ctx, query, k)
}

// Close closes the journal.
func (r *Repository) Close() error {
	return r.journal.Close()
}
