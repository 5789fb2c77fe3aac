package chunker

import (
	"fmt"
	"strings"
	"unicode"

	"docqa/internal/domain"
)

// Defaults used when a Config field is left at zero.
const (
	DefaultChunkSize       = 500
	DefaultOverlap         = 100
	DefaultMaxPages        = 200
	DefaultMaxChunksPerDoc = 2000

	// wordExtension is how far a cut point may move forward to reach whitespace.
	wordExtension = 50
)

// Config configures a WindowChunker.
type Config struct {
	ChunkSize       int
	Overlap         int
	MaxPages        int
	MaxChunksPerDoc int
}

// WindowChunker splits page text into fixed-size character windows that
// overlap and avoid cutting words where possible.
type WindowChunker struct {
	chunkSize       int
	overlap         int
	maxPages        int
	maxChunksPerDoc int
}

var _ domain.Chunker = (*WindowChunker)(nil)

// NewWindowChunker validates cfg and returns a chunker. Overlap must be
// strictly smaller than ChunkSize, otherwise the window would never advance.
func NewWindowChunker(cfg Config) (*WindowChunker, error) {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.MaxPages == 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.MaxChunksPerDoc == 0 {
		cfg.MaxChunksPerDoc = DefaultMaxChunksPerDoc
	}
	switch {
	case cfg.ChunkSize < 0:
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, cfg.ChunkSize)
	case cfg.Overlap < 0:
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", domain.ErrInvalidConfig, cfg.Overlap)
	case cfg.Overlap >= cfg.ChunkSize:
		return nil, fmt.Errorf("%w: overlap (%d) must be smaller than chunk size (%d)", domain.ErrInvalidConfig, cfg.Overlap, cfg.ChunkSize)
	case cfg.MaxPages < 0 || cfg.MaxChunksPerDoc < 0:
		return nil, fmt.Errorf("%w: page and chunk limits must not be negative", domain.ErrInvalidConfig)
	}
	return &WindowChunker{
		chunkSize:       cfg.ChunkSize,
		overlap:         cfg.Overlap,
		maxPages:        cfg.MaxPages,
		maxChunksPerDoc: cfg.MaxChunksPerDoc,
	}, nil
}

// MaxPages returns the number of leading pages the chunker will consider.
func (c *WindowChunker) MaxPages() int { return c.maxPages }

// Split chunks the pages in order. Empty pages are skipped. Processing stops
// once the running chunk count exceeds the per-document cap and the result is
// truncated to the cap.
func (c *WindowChunker) Split(pages []string) []string {
	var chunks []string
	for i, page := range pages {
		if i >= c.maxPages {
			break
		}
		chunks = c.splitPage(chunks, page)
		if len(chunks) > c.maxChunksPerDoc {
			chunks = chunks[:c.maxChunksPerDoc]
			break
		}
	}
	return chunks
}

func (c *WindowChunker) splitPage(chunks []string, page string) []string {
	text := []rune(strings.TrimSpace(page))
	n := len(text)
	start := 0
	for start < n {
		end := start + c.chunkSize
		if end < n {
			limit := min(n, end+wordExtension)
			for end < limit && !unicode.IsSpace(text[end]) {
				end++
			}
		}
		if chunk := strings.TrimSpace(string(text[start:min(end, n)])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		start = end - c.overlap
	}
	return chunks
}

// Chunks assigns ids to split chunk texts. Ids combine the document id and
// the zero-based ordinal within the document.
func Chunks(documentID string, texts []string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		out[i] = domain.Chunk{
			DocumentID: documentID,
			ChunkID:    fmt.Sprintf("%s_%d", documentID, i),
			Text:       t,
		}
	}
	return out
}
