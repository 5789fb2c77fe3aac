package retrieval_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/chunker"
	"docqa/internal/domain"
	"docqa/internal/embedding/hashing"
	"docqa/internal/extractor"
	"docqa/internal/mock"
	"docqa/internal/repository"
	"docqa/internal/retrieval"
	"docqa/internal/vectorstore/memory"
)

// spyIndex counts Search calls on top of an in-memory index.
func spyIndex(searches *atomic.Int32) *mock.VectorIndex {
	inner := memory.NewStorage()
	return &mock.VectorIndex{
		ResetFn:    inner.Reset,
		AddFn:      inner.Add,
		TruncateFn: inner.Truncate,
		LenFn:      inner.Len,
		SearchFn: func(ctx context.Context, q []float32, k int) ([]domain.Hit, error) {
			searches.Add(1)
			return inner.Search(ctx, q, k)
		},
	}
}

func nopJournal() *mock.Journal {
	return &mock.Journal{
		LoadFn:   func(context.Context) ([]domain.Chunk, error) { return nil, nil },
		AppendFn: func(context.Context, []domain.Chunk) error { return nil },
		CloseFn:  func() error { return nil },
	}
}

type fixture struct {
	repo     *repository.Repository
	policy   *retrieval.Policy
	embedder *hashing.Embedder
	searches *atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{embedder: hashing.NewEmbedder(hashing.DefaultDimension), searches: &atomic.Int32{}}
	f.repo = repository.New(nopJournal(), spyIndex(f.searches))
	_, err := f.repo.Open(context.Background(), f.embedder)
	require.NoError(t, err)
	f.policy = retrieval.NewPolicy(f.repo, f.embedder, extractor.New())
	return f
}

func (f *fixture) ingest(t *testing.T, docID string, texts ...string) {
	t.Helper()
	vecs, err := f.embedder.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.NoError(t, f.repo.Append(context.Background(), chunker.Chunks(docID, texts), vecs))
}

func TestPolicy_EmptyIndex(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	got, err := f.policy.Answer(context.Background(), "what is this about?", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Zero(t, f.searches.Load())
}

func TestPolicy_FullDocumentExtractionSkipsSearch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.ingest(t, "doc1", "Name: Jane Doe\nCGPA: 8.50")

	tests := []struct {
		question string
		want     string
	}{
		{"What is the name?", "Jane Doe"},
		{"What is the CGPA?", "8.50"},
	}
	for _, tt := range tests {
		got, err := f.policy.Answer(context.Background(), tt.question, 5)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, domain.AnswerRecord{
			Score:      1.0,
			Answer:     tt.want,
			Context:    retrieval.FullDocumentContext,
			DocumentID: "doc1",
			ChunkID:    retrieval.FullDocumentChunkID,
		}, got[0])
	}
	assert.Zero(t, f.searches.Load())
}

func TestPolicy_OnlyActiveDocumentIsExtracted(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.ingest(t, "old", "Email: old@example.com")
	f.ingest(t, "new", "nothing to see")

	got, err := f.policy.Answer(context.Background(), "what is the email?", 5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.searches.Load())
	require.NotEmpty(t, got)
	for _, r := range got {
		assert.NotEqual(t, retrieval.FullDocumentChunkID, r.ChunkID)
	}
	// The per-chunk pass still extracts from the older document's chunk.
	var answers []string
	for _, r := range got {
		answers = append(answers, r.Answer)
	}
	assert.Contains(t, answers, "old@example.com")
}

func TestPolicy_SemanticFallback(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	long := "pasta " + strings.Repeat("x", 600)
	f.ingest(t, "doc1", "machine learning models", long, "gardening tips")

	got, err := f.policy.Answer(context.Background(), "pasta", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.EqualValues(t, 1, f.searches.Load())

	r := got[0]
	assert.Equal(t, "doc1_1", r.ChunkID)
	assert.Equal(t, "doc1", r.DocumentID)
	assert.Equal(t, long[:200], r.Answer)
	assert.Equal(t, long[:500], r.Context)
	assert.Greater(t, r.Score, 0.0)
}

func TestPolicy_ResultsOrderedAndBounded(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.ingest(t, "doc1", "alpha beta", "alpha", "gamma delta", "epsilon")

	got, err := f.policy.Answer(context.Background(), "alpha beta", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "doc1_0", got[0].ChunkID)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestPolicy_SkipsOutOfRangeHits(t *testing.T) {
	t.Parallel()
	store := &fakeStore{
		chunks: []domain.Chunk{{DocumentID: "d", ChunkID: "d_0", Text: "only chunk"}},
		hits:   []domain.Hit{{Position: 5, Score: 0.9}, {Position: 0, Score: 0.5}},
	}
	emb := &mock.Embedder{
		EmbedFn: func(context.Context, []string) ([][]float32, error) {
			return [][]float32{{1}}, nil
		},
	}
	p := retrieval.NewPolicy(store, emb, extractor.New())

	got, err := p.Answer(context.Background(), "anything", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d_0", got[0].ChunkID)
	assert.Equal(t, "only chunk", got[0].Answer)
}

type fakeStore struct {
	chunks []domain.Chunk
	hits   []domain.Hit
}

// ActiveDocument reports no document so only the semantic tier runs.
func (s *fakeStore) ActiveDocument() (string, bool) { return "", false }

func (s *fakeStore) Chunks(string) []domain.Chunk { return nil }

func (s *fakeStore) IndexLen() int { return len(s.hits) }

func (s *fakeStore) At(i int) (domain.Chunk, bool) {
	if i < 0 || i >= len(s.chunks) {
		return domain.Chunk{}, false
	}
	return s.chunks[i], true
}

func (s *fakeStore) Search(context.Context, []float32, int) ([]domain.Hit, error) {
	return s.hits, nil
}

func TestJoinChunks(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a b c", retrieval.JoinChunks(chunker.Chunks("d", []string{"a", "b", "c"})))
	assert.Empty(t, retrieval.JoinChunks(nil))
}
