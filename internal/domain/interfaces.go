package domain

import "context"

// Document is a single uploaded file registered with the system.
type Document struct {
	ID       string
	Filename string
}

// Chunk is a bounded, whitespace-trimmed piece of a document's text.
// Chunks are appended in page order and never mutated afterwards.
type Chunk struct {
	DocumentID string `json:"doc_id"`
	ChunkID    string `json:"chunk_id"`
	Text       string `json:"text"`
}

// Hit is a nearest-neighbour match returned by a VectorIndex.
// Position is the zero-based insertion position of the matched vector.
type Hit struct {
	Position int
	Score    float32
}

// AnswerRecord is one answer produced for a question.
type AnswerRecord struct {
	Score      float64 `json:"score"`
	Answer     string  `json:"answer"`
	Context    string  `json:"context"`
	DocumentID string  `json:"doc_id"`
	ChunkID    string  `json:"chunk_id"`
}

// Embedder maps text to fixed-dimension unit vectors.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunker splits per-page document text into overlapping chunks.
type Chunker interface {
	Split(pages []string) []string
}

// VectorIndex is an append-only inner-product index. The i-th added vector
// always occupies position i.
type VectorIndex interface {
	Reset(ctx context.Context, dimension int) error
	Add(ctx context.Context, vectors [][]float32) error
	Truncate(ctx context.Context, n int) error
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
	Len() int
}

// Journal is the durable record of the global chunk sequence.
type Journal interface {
	Load(ctx context.Context) ([]Chunk, error)
	Append(ctx context.Context, chunks []Chunk) error
	Close() error
}

// PageReader extracts plain text per page from a document file.
type PageReader interface {
	ReadPages(ctx context.Context, path string, maxPages int) ([]string, error)
}

// FieldExtractor pulls a single typed value out of text for a question.
type FieldExtractor interface {
	Extract(question, text string) (string, bool)
}

// Summarizer produces a short textual summary of a document's text.
type Summarizer interface {
	Summarize(text string, wordCount int) string
}
