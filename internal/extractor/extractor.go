// Package extractor pulls single labelled facts (names, scores, contact
// details) out of document text with an ordered list of regex rules.
package extractor

import (
	"regexp"
	"strings"

	"docqa/internal/domain"
)

// Field names the kind of value a rule extracts.
type Field string

const (
	FieldName     Field = "name"
	FieldSemester Field = "semester"
	FieldGPA      Field = "gpa"
	FieldEmail    Field = "email"
	FieldPhone    Field = "phone"
	FieldGitHub   Field = "github"
)

// Rule extracts one field. It fires only when the lowercased question
// contains one of its triggers; patterns are then tried in order and the
// first match wins.
type Rule struct {
	Field    Field
	Triggers []string
	Patterns []Pattern
}

// Pattern is a compiled expression and the capture group holding the value
// (0 for the whole match). Value, when set, derives the value from the full
// submatch slice instead.
type Pattern struct {
	Re    *regexp.Regexp
	Group int
	Value func(m []string) string
}

// Triggered reports whether the lowercased question selects this rule.
func (r Rule) Triggered(question string) bool {
	for _, t := range r.Triggers {
		if strings.Contains(question, t) {
			return true
		}
	}
	return false
}

// Apply runs the rule's patterns over text.
func (r Rule) Apply(text string) (string, bool) {
	for _, p := range r.Patterns {
		m := p.Re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v := m[p.Group]
		if p.Value != nil {
			v = p.Value(m)
		}
		if v = strings.TrimSpace(v); v != "" {
			return v, true
		}
	}
	return "", false
}

const (
	scoreNumber = `([0-9]{1,2}(?:\.\d{1,4})?)`
	scoreLabel  = `(?:CGPA|SGPA|GPA|CPI)`
)

// DefaultRules returns the built-in rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Field:    FieldName,
			Triggers: []string{"name"},
			Patterns: []Pattern{{
				Re:    regexp.MustCompile(`(?i:name of student|name)[ \t]*[:\-]?[ \t]*([A-Z][a-zA-Z.'\-]*(?:[ \t,]+[A-Z][a-zA-Z.'\-]*)*)([ \t]*:)?`),
				Group: 1,
				Value: nameBeforeLabel,
			}},
		},
		{
			Field:    FieldSemester,
			Triggers: []string{"semester", "sem"},
			Patterns: []Pattern{{
				Re:    regexp.MustCompile(`(?i)(?:semester|sem)\s*[:\-]?\s*([0-9]{1,2}(?:st|nd|rd|th)?|[ivxlcdm]+)\b`),
				Group: 1,
			}},
		},
		{
			Field:    FieldGPA,
			Triggers: []string{"gpa", "cgpa", "cpi", "sgpa"},
			Patterns: []Pattern{
				{Re: regexp.MustCompile(`(?i)` + scoreLabel + `\s*[:=\-]?\s*` + scoreNumber), Group: 1},
				{Re: regexp.MustCompile(`\b` + scoreNumber + `\s*/\s*10\b`), Group: 1},
				{Re: regexp.MustCompile(`(?i)\b` + scoreNumber + `\s*` + scoreLabel), Group: 1},
			},
		},
		{
			Field:    FieldEmail,
			Triggers: []string{"email"},
			Patterns: []Pattern{{Re: regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)}},
		},
		{
			Field:    FieldPhone,
			Triggers: []string{"phone", "contact", "mobile"},
			Patterns: []Pattern{{Re: regexp.MustCompile(`(?:\+?\d{1,3}[\s\-]?)?\d[\d\s\-]{7,}\d`)}},
		},
		{
			Field:    FieldGitHub,
			Triggers: []string{"github"},
			Patterns: []Pattern{{Re: regexp.MustCompile(`(?i)https?://github\.com/[A-Za-z0-9_.\-]+`)}},
		},
	}
}

// nameBeforeLabel drops the last word of the captured run when a colon
// follows it, so "Jane Doe CGPA: 8.5" yields "Jane Doe".
func nameBeforeLabel(m []string) string {
	name := m[1]
	if m[2] == "" {
		return name
	}
	if i := strings.LastIndexAny(name, " \t,"); i >= 0 {
		return strings.TrimRight(name[:i], " \t,")
	}
	return ""
}

// Extractor applies rules in order and returns the first extracted value.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	rules []Rule
}

var _ domain.FieldExtractor = (*Extractor)(nil)

// New returns an Extractor over rules, or over DefaultRules when none are given.
func New(rules ...Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Extractor{rules: rules}
}

// Extract returns the value of the first triggered rule that matches text.
// A triggered rule that fails to match falls through to the next one.
func (e *Extractor) Extract(question, text string) (string, bool) {
	_, v, ok := e.ExtractField(question, text)
	return v, ok
}

// ExtractField is Extract that also reports which field matched.
func (e *Extractor) ExtractField(question, text string) (Field, string, bool) {
	q := strings.ToLower(question)
	for _, r := range e.rules {
		if !r.Triggered(q) {
			continue
		}
		if v, ok := r.Apply(text); ok {
			return r.Field, v, true
		}
	}
	return "", "", false
}
