package summarizer

import (
	"regexp"
	"strings"

	"docqa/internal/domain"
)

// Ellipsis marks a summary cut short of the full text.
const Ellipsis = " ..."

var headlinePattern = regexp.MustCompile(`(?i)(?:CGPA|GPA|SGPA|CPI)\s*[:=\-]?\s*([0-9]+(?:\.\d{1,4})?)`)

// Headline returns the one-line GPA annotation for text, or "" when the text
// carries no labelled score.
func Headline(text string) string {
	m := headlinePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return "CGPA: " + m[1] + "\n"
}

// TruncateSummarizer keeps the first wordCount words of the text.
type TruncateSummarizer struct{}

var _ domain.Summarizer = (*TruncateSummarizer)(nil)

// NewTruncateSummarizer returns a summarizer that truncates by word count.
func NewTruncateSummarizer() *TruncateSummarizer { return &TruncateSummarizer{} }

// Summarize prefixes the headline, if any, to the first wordCount words.
// The ellipsis is appended only when words were dropped.
func (s *TruncateSummarizer) Summarize(text string, wordCount int) string {
	if wordCount < 0 {
		wordCount = 0
	}
	words := strings.Fields(text)
	body := words
	if len(words) > wordCount {
		body = words[:wordCount]
	}
	out := Headline(text) + strings.Join(body, " ")
	if len(words) > wordCount {
		out += Ellipsis
	}
	return out
}
