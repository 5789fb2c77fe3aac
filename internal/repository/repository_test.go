package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/embedding/hashing"
	"docqa/internal/journal/jsonfile"
	"docqa/internal/mock"
	"docqa/internal/repository"
	"docqa/internal/vectorstore/memory"
)

func chunks(docID string, texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		out[i] = domain.Chunk{DocumentID: docID, ChunkID: docID + "_" + string(rune('0'+i)), Text: t}
	}
	return out
}

func openRepo(t *testing.T, path string, emb domain.Embedder) *repository.Repository {
	t.Helper()
	repo := repository.New(jsonfile.New(path), memory.NewStorage())
	_, err := repo.Open(context.Background(), emb)
	require.NoError(t, err)
	return repo
}

func appendDoc(t *testing.T, repo *repository.Repository, emb domain.Embedder, cs []domain.Chunk) {
	t.Helper()
	texts := make([]string, len(cs))
	for i, c := range cs {
		texts[i] = c.Text
	}
	vecs, err := emb.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.NoError(t, repo.Append(context.Background(), cs, vecs))
}

func TestRepository_AppendKeepsPositionsAligned(t *testing.T) {
	t.Parallel()
	emb := hashing.NewEmbedder(64)
	repo := openRepo(t, filepath.Join(t.TempDir(), "docs.json"), emb)

	appendDoc(t, repo, emb, chunks("aaa", "first chunk", "second chunk"))
	appendDoc(t, repo, emb, chunks("bbb", "third chunk"))

	assert.Equal(t, 3, repo.Len())
	assert.Equal(t, 3, repo.IndexLen())
	c, ok := repo.At(2)
	require.True(t, ok)
	assert.Equal(t, "bbb", c.DocumentID)
	_, ok = repo.At(3)
	assert.False(t, ok)
	_, ok = repo.At(-1)
	assert.False(t, ok)

	assert.Equal(t, []string{"aaa", "bbb"}, repo.Documents())
	assert.Len(t, repo.Chunks("aaa"), 2)
	assert.Empty(t, repo.Chunks("zzz"))

	active, ok := repo.ActiveDocument()
	require.True(t, ok)
	assert.Equal(t, "bbb", active)
}

func TestRepository_ActiveDocumentEmpty(t *testing.T) {
	t.Parallel()
	repo := openRepo(t, filepath.Join(t.TempDir(), "docs.json"), hashing.NewEmbedder(16))
	_, ok := repo.ActiveDocument()
	assert.False(t, ok)
}

func TestRepository_AppendLengthMismatch(t *testing.T) {
	t.Parallel()
	emb := hashing.NewEmbedder(16)
	repo := openRepo(t, filepath.Join(t.TempDir(), "docs.json"), emb)

	err := repo.Append(context.Background(), chunks("aaa", "x", "y"), [][]float32{make([]float32, 16)})
	require.ErrorIs(t, err, domain.ErrLengthMismatch)
	assert.Equal(t, 0, repo.Len())
	assert.Equal(t, 0, repo.IndexLen())
}

func TestRepository_AppendRollsBackIndexOnJournalFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("disk full")
	index := memory.NewStorage()
	journal := &mock.Journal{
		LoadFn:   func(context.Context) ([]domain.Chunk, error) { return nil, nil },
		AppendFn: func(context.Context, []domain.Chunk) error { return boom },
		CloseFn:  func() error { return nil },
	}
	emb := hashing.NewEmbedder(16)
	repo := repository.New(journal, index)
	_, err := repo.Open(ctx, emb)
	require.NoError(t, err)

	err = repo.Append(ctx, chunks("aaa", "x"), [][]float32{make([]float32, 16)})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, repo.Len())
	assert.Equal(t, 0, index.Len())
}

func TestRepository_AppendRejectsBadDimension(t *testing.T) {
	t.Parallel()
	emb := hashing.NewEmbedder(16)
	repo := openRepo(t, filepath.Join(t.TempDir(), "docs.json"), emb)

	err := repo.Append(context.Background(), chunks("aaa", "x"), [][]float32{make([]float32, 8)})
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 0, repo.Len())
}

func TestRepository_OpenRebuildsIndexFromJournal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "docs.json")
	emb := hashing.NewEmbedder(hashing.DefaultDimension)

	repo := openRepo(t, path, emb)
	appendDoc(t, repo, emb, chunks("aaa", "machine learning models", "cooking pasta recipes"))
	appendDoc(t, repo, emb, chunks("bbb", "grade point average"))
	require.NoError(t, repo.Close())

	reopened := repository.New(jsonfile.New(path), memory.NewStorage())
	n, err := reopened.Open(ctx, emb)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, reopened.IndexLen())

	q, err := emb.Embed(ctx, []string{"pasta recipes"})
	require.NoError(t, err)
	hits, err := reopened.Search(ctx, q[0], 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	c, ok := reopened.At(hits[0].Position)
	require.True(t, ok)
	assert.Equal(t, "cooking pasta recipes", c.Text)

	active, ok := reopened.ActiveDocument()
	require.True(t, ok)
	assert.Equal(t, "bbb", active)
}

func TestRepository_OpenPropagatesEmbedError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "docs.json")
	require.NoError(t, jsonfile.New(path).Append(ctx, chunks("aaa", "x")))

	emb := &mock.Embedder{
		DimensionFn: func() int { return 4 },
		EmbedFn: func(context.Context, []string) ([][]float32, error) {
			return nil, errors.New("offline")
		},
	}
	repo := repository.New(jsonfile.New(path), memory.NewStorage())
	_, err := repo.Open(ctx, emb)
	require.Error(t, err)
	assert.Equal(t, 0, repo.Len())
}
