package tui_test

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/tui"
)

type fakePort struct {
	active    string
	records   []domain.AnswerRecord
	questions []string
	topK      int
	words     int
}

func (p *fakePort) Answer(_ context.Context, q string, k int) ([]domain.AnswerRecord, error) {
	p.questions = append(p.questions, q)
	p.topK = k
	return p.records, nil
}

func (p *fakePort) Summarize(id string, wc int) (string, error) {
	p.words = wc
	return "CGPA: 8.50\nsummary of " + id, nil
}

func (p *fakePort) ActiveDocument() (string, bool) { return p.active, p.active != "" }

func send(t *testing.T, m tea.Model, msgs ...tea.Msg) tea.Model {
	t.Helper()
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func TestModel_AskShowsAnswer(t *testing.T) {
	t.Parallel()
	port := &fakePort{
		active:  "abcd1234",
		records: []domain.AnswerRecord{{Score: 1, Answer: "8.50", Context: "Extracted directly from document", DocumentID: "abcd1234", ChunkID: "full_doc"}},
	}
	m := send(t, tui.New(port, tui.Options{TopK: 3}),
		tea.WindowSizeMsg{Width: 120, Height: 30},
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("cgpa?")},
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	require.Equal(t, []string{"cgpa?"}, port.questions)
	assert.Equal(t, 3, port.topK)
	view := m.View()
	assert.Contains(t, view, "8.50")
	assert.Contains(t, view, "full_doc")
	assert.Contains(t, view, "1 answer(s)")
}

func TestModel_SummaryOnCtrlS(t *testing.T) {
	t.Parallel()
	port := &fakePort{active: "abcd1234"}
	m := send(t, tui.New(port, tui.Options{WordCount: 40}),
		tea.WindowSizeMsg{Width: 120, Height: 30},
		tea.KeyMsg{Type: tea.KeyCtrlS},
	)

	assert.Equal(t, 40, port.words)
	view := m.View()
	assert.Contains(t, view, "CGPA: 8.50")
	assert.Contains(t, view, "Summary of abcd1234")
}

func TestModel_NothingIngested(t *testing.T) {
	t.Parallel()
	port := &fakePort{}
	m := send(t, tui.New(port, tui.Options{}),
		tea.WindowSizeMsg{Width: 120, Height: 30},
		tea.KeyMsg{Type: tea.KeyCtrlS},
	)
	assert.Zero(t, port.words)
	assert.Contains(t, m.View(), "Nothing to summarize yet.")
}

func TestModel_LoadingBeforeResize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Loading...", tui.New(&fakePort{}, tui.Options{}).View())
}

func TestModel_QuitKeys(t *testing.T) {
	t.Parallel()
	_, cmd := tui.New(&fakePort{}, tui.Options{}).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
