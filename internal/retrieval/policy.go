// Package retrieval answers questions in two tiers: rule-based field
// extraction over the active document first, then nearest-neighbour search
// over every indexed chunk.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"docqa/internal/domain"
)

const (
	// FullDocumentChunkID marks an answer extracted from a whole document
	// rather than from one chunk.
	FullDocumentChunkID = "full_doc"
	// FullDocumentContext is the context reported for full-document answers.
	FullDocumentContext = "Extracted directly from document"

	answerPreview  = 200
	contextPreview = 500
)

// Store is the read side of the chunk repository.
type Store interface {
	ActiveDocument() (string, bool)
	Chunks(documentID string) []domain.Chunk
	At(position int) (domain.Chunk, bool)
	IndexLen() int
	Search(ctx context.Context, query []float32, k int) ([]domain.Hit, error)
}

// Policy decides how a question is answered.
type Policy struct {
	store     Store
	embedder  domain.Embedder
	extractor domain.FieldExtractor
}

// NewPolicy returns a Policy over store.
func NewPolicy(store Store, embedder domain.Embedder, extractor domain.FieldExtractor) *Policy {
	return &Policy{store: store, embedder: embedder, extractor: extractor}
}

// Answer returns at most k answers for question. When the most recently
// ingested document yields the requested field, that single answer is
// returned and the index is not consulted. An empty index gives no answers.
func (p *Policy) Answer(ctx context.Context, question string, k int) ([]domain.AnswerRecord, error) {
	if docID, ok := p.store.ActiveDocument(); ok {
		text := JoinChunks(p.store.Chunks(docID))
		if value, ok := p.extractor.Extract(question, text); ok {
			return []domain.AnswerRecord{{
				Score:      1.0,
				Answer:     value,
				Context:    FullDocumentContext,
				DocumentID: docID,
				ChunkID:    FullDocumentChunkID,
			}}, nil
		}
	}

	if p.store.IndexLen() == 0 || k <= 0 {
		return []domain.AnswerRecord{}, nil
	}

	vecs, err := p.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: 1 question, %d vectors", domain.ErrLengthMismatch, len(vecs))
	}
	hits, err := p.store.Search(ctx, vecs[0], k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	records := make([]domain.AnswerRecord, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := p.store.At(hit.Position)
		if !ok {
			continue
		}
		answer, ok := p.extractor.Extract(question, chunk.Text)
		if !ok {
			answer = prefix(chunk.Text, answerPreview)
		}
		records = append(records, domain.AnswerRecord{
			Score:      float64(hit.Score),
			Answer:     answer,
			Context:    prefix(chunk.Text, contextPreview),
			DocumentID: chunk.DocumentID,
			ChunkID:    chunk.ChunkID,
		})
	}
	return records, nil
}

// JoinChunks concatenates chunk text with single spaces.
func JoinChunks(chunks []domain.Chunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, " ")
}

// prefix returns at most n runes of s.
func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
