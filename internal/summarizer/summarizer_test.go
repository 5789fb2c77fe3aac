package summarizer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"docqa/internal/summarizer"
)

const tenWords = "one two three four five six seven eight nine ten"

func TestTruncateSummarizer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		wordCount int
		want      string
	}{
		{"cut short", tenWords, 5, "one two three four five ..."},
		{"exact budget", tenWords, 10, tenWords},
		{"over budget", tenWords, 50, tenWords},
		{"collapses whitespace", "one\n two\t\tthree", 3, "one two three"},
		{"headline", "Report CGPA: 8.50 overall good", 2, "CGPA: 8.50\nReport CGPA: ..."},
		{"headline lowercase label", "sgpa = 7.1 semester", 10, "CGPA: 7.1\nsgpa = 7.1 semester"},
		{"empty", "", 5, ""},
	}
	s := summarizer.NewTruncateSummarizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, s.Summarize(tt.text, tt.wordCount))
		})
	}
}

func TestHeadline(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "CGPA: 9.2\n", summarizer.Headline("GPA-9.2"))
	assert.Equal(t, "CGPA: 7.05\n", summarizer.Headline("cpi 7.05 and CGPA 8"))
	assert.Empty(t, summarizer.Headline("no scores here"))
}

func TestFrequencySummarizer_FitsBudget(t *testing.T) {
	t.Parallel()
	text := "Go is a language. Go has goroutines and channels for concurrency. " +
		"The weather was fine. Go programs compile quickly."
	s := summarizer.NewFrequencySummarizer()

	got := s.Summarize(text, 8)
	assert.True(t, strings.HasSuffix(got, summarizer.Ellipsis))
	words := strings.Fields(strings.TrimSuffix(got, summarizer.Ellipsis))
	assert.LessOrEqual(t, len(words), 8)
	assert.NotEmpty(t, words)
}

func TestFrequencySummarizer_WholeTextNoEllipsis(t *testing.T) {
	t.Parallel()
	text := "First sentence here. Second sentence there."
	got := summarizer.NewFrequencySummarizer().Summarize(text, 100)
	assert.Equal(t, text, got)
}

func TestFrequencySummarizer_LongSentenceFallsBack(t *testing.T) {
	t.Parallel()
	got := summarizer.NewFrequencySummarizer().Summarize(tenWords, 3)
	assert.Equal(t, "one two three ...", got)
}
