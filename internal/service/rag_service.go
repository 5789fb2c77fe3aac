package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docqa/internal/chunker"
	"docqa/internal/domain"
	"docqa/internal/repository"
	"docqa/internal/retrieval"
)

// NotFoundSummary is returned by Summarize for a document with no chunks.
const NotFoundSummary = "No text found for this document."

// IngestResult describes one ingested file.
type IngestResult struct {
	DocumentID  string `json:"doc_id"`
	Filename    string `json:"filename"`
	ChunksAdded int    `json:"chunks_added"`
}

// RAGService ties ingestion, answering and summarizing to one repository.
// Every front end goes through it.
type RAGService struct {
	reader     domain.PageReader
	chunker    *chunker.WindowChunker
	embedder   domain.Embedder
	repo       *repository.Repository
	policy     *retrieval.Policy
	summarizer domain.Summarizer
	logger     *slog.Logger
}

// NewRAGService wires the ingest, answer and summarize pipeline over repo.
// A nil logger falls back to slog.Default().
func NewRAGService(reader domain.PageReader, splitter *chunker.WindowChunker, embedder domain.Embedder, repo *repository.Repository, extractor domain.FieldExtractor, summarizer domain.Summarizer, logger *slog.Logger) *RAGService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RAGService{
		reader:     reader,
		chunker:    splitter,
		embedder:   embedder,
		repo:       repo,
		policy:     retrieval.NewPolicy(repo, embedder, extractor),
		summarizer: summarizer,
		logger:     logger,
	}
}

// Restore reloads persisted chunks and rebuilds the vector index from them.
func (s *RAGService) Restore(ctx context.Context) error {
	n, err := s.repo.Open(ctx, s.embedder)
	if err != nil {
		return err
	}
	s.logger.Info("index rebuilt", "chunks", n, "documents", len(s.repo.Documents()), "embedder", s.embedder.Name())
	return nil
}

// NewDocumentID returns a short random document id.
func NewDocumentID() string {
	return uuid.NewString()[:8]
}

// IngestFile ingests the PDF at path under a fresh document id.
func (s *RAGService) IngestFile(ctx context.Context, path string) (IngestResult, error) {
	return s.Ingest(ctx, domain.Document{ID: NewDocumentID(), Filename: filepath.Base(path)}, path)
}

// Ingest reads the file at path and stores it as doc. A file without
// extractable text yields zero chunks and no error.
func (s *RAGService) Ingest(ctx context.Context, doc domain.Document, path string) (IngestResult, error) {
	if doc.ID == "" {
		return IngestResult{}, fmt.Errorf("%w: empty document id", domain.ErrInvalidInput)
	}
	pages, err := s.reader.ReadPages(ctx, path, s.chunker.MaxPages())
	if err != nil {
		return IngestResult{}, fmt.Errorf("reading %s: %w", doc.Filename, err)
	}
	n, err := s.IngestPages(ctx, doc.ID, pages)
	if err != nil {
		return IngestResult{}, err
	}
	s.logger.Info("document ingested", "doc_id", doc.ID, "filename", doc.Filename, "pages", len(pages), "chunks", n)
	return IngestResult{DocumentID: doc.ID, Filename: doc.Filename, ChunksAdded: n}, nil
}

// IngestPages chunks, embeds and stores page texts for documentID and
// returns the number of chunks added.
func (s *RAGService) IngestPages(ctx context.Context, documentID string, pages []string) (int, error) {
	texts := s.chunker.Split(pages)
	if len(texts) == 0 {
		s.logger.Debug("no text to ingest", "doc_id", documentID)
		return 0, nil
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks: %w", len(texts), err)
	}
	if err := s.repo.Append(ctx, chunker.Chunks(documentID, texts), vectors); err != nil {
		return 0, err
	}
	return len(texts), nil
}

// Answer answers question with at most topK records.
func (s *RAGService) Answer(ctx context.Context, question string, topK int) ([]domain.AnswerRecord, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidInput, topK)
	}
	records, err := s.policy.Answer(ctx, question, topK)
	if err != nil {
		return nil, err
	}
	path := "semantic"
	if len(records) == 1 && records[0].ChunkID == retrieval.FullDocumentChunkID {
		path = retrieval.FullDocumentChunkID
	}
	s.logger.Debug("question answered", "path", path, "results", len(records))
	return records, nil
}

// Summarize returns a wordCount-word summary of a document, or
// NotFoundSummary when the document has no chunks.
func (s *RAGService) Summarize(documentID string, wordCount int) (string, error) {
	if documentID == "" {
		return "", fmt.Errorf("%w: empty document id", domain.ErrInvalidInput)
	}
	if wordCount < 0 {
		return "", fmt.Errorf("%w: word_count must not be negative, got %d", domain.ErrInvalidInput, wordCount)
	}
	chunks := s.repo.Chunks(documentID)
	if len(chunks) == 0 {
		return NotFoundSummary, nil
	}
	return s.summarizer.Summarize(retrieval.JoinChunks(chunks), wordCount), nil
}

// ActiveDocument returns the most recently ingested document id.
func (s *RAGService) ActiveDocument() (string, bool) {
	return s.repo.ActiveDocument()
}

// Documents returns ingested document ids in ingestion order.
func (s *RAGService) Documents() []string {
	return s.repo.Documents()
}

// Stats reports the chunk count and the index length.
func (s *RAGService) Stats() (chunks, vectors int) {
	return s.repo.Len(), s.repo.IndexLen()
}

// Close releases the repository.
func (s *RAGService) Close() error {
	return s.repo.Close()
}
