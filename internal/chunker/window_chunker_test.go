package chunker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/chunker"
	"docqa/internal/domain"
)

func newChunker(t *testing.T, cfg chunker.Config) *chunker.WindowChunker {
	t.Helper()
	c, err := chunker.NewWindowChunker(cfg)
	require.NoError(t, err)
	return c
}

func TestNewWindowChunker_RejectsNonAdvancingWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  chunker.Config
	}{
		{"overlap equal to size", chunker.Config{ChunkSize: 100, Overlap: 100}},
		{"overlap larger than size", chunker.Config{ChunkSize: 100, Overlap: 150}},
		{"negative overlap", chunker.Config{ChunkSize: 100, Overlap: -1}},
		{"negative size", chunker.Config{ChunkSize: -5}},
		{"negative cap", chunker.Config{ChunkSize: 10, MaxChunksPerDoc: -1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := chunker.NewWindowChunker(tc.cfg)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}

func TestNewWindowChunker_Defaults(t *testing.T) {
	t.Parallel()

	c := newChunker(t, chunker.Config{Overlap: chunker.DefaultOverlap})
	assert.Equal(t, chunker.DefaultMaxPages, c.MaxPages())
}

func TestSplit_ExtendsCutToWordBoundary(t *testing.T) {
	t.Parallel()

	c := newChunker(t, chunker.Config{ChunkSize: 10, Overlap: 3})
	got := c.Split([]string{"The quick brown fox jumps over the lazy dog"})

	assert.Equal(t, []string{
		"The quick brown",
		"own fox jumps",
		"mps over the",
		"the lazy dog",
		"dog",
	}, got)
}

func TestSplit_LongWordIsCutAfterExtensionLimit(t *testing.T) {
	t.Parallel()

	c := newChunker(t, chunker.Config{ChunkSize: 10})
	got := c.Split([]string{strings.Repeat("y", 101)})

	require.Len(t, got, 2)
	assert.Len(t, got[0], 60)
	assert.Len(t, got[1], 41)
}

func TestSplit_ChunkCountFollowsStep(t *testing.T) {
	t.Parallel()

	// Ten nine-letter words; every cut at 19 lands on a space.
	page := strings.Repeat("abcdefghi ", 10)
	c := newChunker(t, chunker.Config{ChunkSize: 19, Overlap: 9})
	got := c.Split([]string{page})

	assert.Len(t, got, 10)
	for i, ch := range got[:len(got)-1] {
		assert.Equal(t, "abcdefghi abcdefghi", ch, "chunk %d", i)
	}
	assert.Equal(t, "abcdefghi", got[len(got)-1])
}

func TestSplit_CoversPageWithoutGaps(t *testing.T) {
	t.Parallel()

	page := "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu"
	c := newChunker(t, chunker.Config{ChunkSize: 16, Overlap: 4})
	got := c.Split([]string{page})
	require.Len(t, got, 5)

	// Each chunk must start inside the text already covered by its
	// predecessors, and together they must reach the end of the page.
	pos, covered := 0, 0
	for i, ch := range got {
		from := 0
		if i > 0 {
			from = pos + 1
		}
		idx := strings.Index(page[from:], ch)
		require.GreaterOrEqual(t, idx, 0, "chunk %q not found in order", ch)
		pos = from + idx
		assert.LessOrEqual(t, pos, covered, "gap before chunk %d", i)
		covered = max(covered, pos+len(ch))
	}
	assert.Equal(t, len(page), covered)
}

func TestSplit_SkipsBlankPages(t *testing.T) {
	t.Parallel()

	c := newChunker(t, chunker.Config{ChunkSize: 10, Overlap: 3})
	assert.Equal(t, []string{"hello"}, c.Split([]string{"", "   \n\t", "  hello  "}))
	assert.Empty(t, c.Split(nil))
}

func TestSplit_RespectsLimits(t *testing.T) {
	t.Parallel()

	t.Run("max pages", func(t *testing.T) {
		t.Parallel()
		c := newChunker(t, chunker.Config{ChunkSize: 10, MaxPages: 1})
		assert.Equal(t, []string{"a"}, c.Split([]string{"a", "b"}))
	})

	t.Run("max chunks per document", func(t *testing.T) {
		t.Parallel()
		c := newChunker(t, chunker.Config{ChunkSize: 10, MaxChunksPerDoc: 2})
		assert.Equal(t, []string{"a", "b"}, c.Split([]string{"a", "b", "c", "d"}))
	})
}

func TestChunks_AssignsOrdinalIDs(t *testing.T) {
	t.Parallel()

	got := chunker.Chunks("ab12cd34", []string{"one", "two"})
	assert.Equal(t, []domain.Chunk{
		{DocumentID: "ab12cd34", ChunkID: "ab12cd34_0", Text: "one"},
		{DocumentID: "ab12cd34", ChunkID: "ab12cd34_1", Text: "two"},
	}, got)
}
