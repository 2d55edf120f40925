package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/parcelops/hub/internal/mention"
)

// caretPos returns the caret offset in runes into the composer value.
// The textarea tracks position per soft-wrapped row, so the absolute
// offset is reconstructed from the line index and column.
func (m *Model) caretPos() int {
	value := m.input.Value()
	lines := strings.Split(value, "\n")
	row := m.input.Line()
	if row >= len(lines) {
		row = len(lines) - 1
	}
	pos := 0
	for i := 0; i < row; i++ {
		pos += len([]rune(lines[i])) + 1
	}
	info := m.input.LineInfo()
	return pos + info.StartColumn + info.ColumnOffset
}

// refreshSuggestions recomputes the mention popup from the current
// composer text and caret.
func (m *Model) refreshSuggestions() {
	ctx := mention.DetectContext(m.input.Value(), m.caretPos())
	if ctx == nil {
		m.clearSuggestions()
		return
	}
	candidates := mention.Rank(m.directory.Candidates(), ctx.Query)
	if len(candidates) == 0 {
		m.clearSuggestions()
		return
	}
	m.suggestionCtx = ctx
	m.suggestions = candidates
	if m.suggestionIndex >= len(candidates) {
		m.suggestionIndex = len(candidates) - 1
	}
}

func (m *Model) clearSuggestions() {
	m.suggestions = nil
	m.suggestionIndex = -1
	m.suggestionCtx = nil
}

// handleSuggestionKeys implements the popup keyboard contract. It reports
// whether the key was consumed; Enter applies a highlighted suggestion but
// is never consumed when nothing is highlighted, so submit still works.
func (m *Model) handleSuggestionKeys(msg tea.KeyMsg) (bool, tea.Cmd) {
	if len(m.suggestions) == 0 {
		return false, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.clearSuggestions()
		return true, nil

	case tea.KeyUp:
		if m.suggestionIndex <= 0 {
			m.suggestionIndex = len(m.suggestions) - 1
		} else {
			m.suggestionIndex--
		}
		return true, nil

	case tea.KeyDown:
		m.suggestionIndex = (m.suggestionIndex + 1) % len(m.suggestions)
		return true, nil

	case tea.KeyTab:
		if m.suggestionIndex < 0 {
			m.suggestionIndex = 0
		}
		m.applySuggestion()
		return true, nil

	case tea.KeyEnter:
		if m.suggestionIndex < 0 {
			return false, nil
		}
		m.applySuggestion()
		return true, nil
	}

	return false, nil
}

func (m *Model) applySuggestion() {
	if m.suggestionCtx == nil || m.suggestionIndex < 0 || m.suggestionIndex >= len(m.suggestions) {
		return
	}
	choice := m.suggestions[m.suggestionIndex]
	newText, _ := mention.ApplyChoice(m.input.Value(), *m.suggestionCtx, choice)
	m.input.SetValue(newText)
	m.input.CursorEnd()
	m.chosen = append(m.chosen, choice)
	m.clearSuggestions()
}

// mentionedUserIDs resolves which of the chosen completions survived the
// final edit of the body.
func (m *Model) mentionedUserIDs(body string) []string {
	return mention.MentionedUserIDs(body, m.chosen)
}
