package chat

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/parcelops/hub/internal/engine"
	"github.com/parcelops/hub/internal/types"
)

const sidebarWidth = 26

var (
	metaColor   = lipgloss.Color("244")
	accentColor = lipgloss.Color("111")
	alertColor  = lipgloss.Color("203")
	unreadColor = lipgloss.Color("220")

	authorPalette = []lipgloss.Color{
		lipgloss.Color("111"),
		lipgloss.Color("157"),
		lipgloss.Color("216"),
		lipgloss.Color("36"),
		lipgloss.Color("183"),
		lipgloss.Color("230"),
	}

	metaStyle     = lipgloss.NewStyle().Foreground(metaColor).Faint(true)
	deletedStyle  = lipgloss.NewStyle().Foreground(metaColor).Italic(true)
	pendingStyle  = lipgloss.NewStyle().Faint(true)
	unreadStyle   = lipgloss.NewStyle().Foreground(unreadColor).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(metaColor)
	errorStyle    = lipgloss.NewStyle().Foreground(alertColor)
	lockStyle     = lipgloss.NewStyle().Foreground(alertColor).Bold(true)
	popupStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

func colorForAuthor(userID string) lipgloss.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return authorPalette[int(h.Sum32())%len(authorPalette)]
}

func (m *Model) mainWidth() int {
	w := m.width - sidebarWidth - 1
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) resize() {
	vpHeight := m.height - m.input.Height() - 3
	if vpHeight < 3 {
		vpHeight = 3
	}
	if !m.ready {
		m.viewport = viewport.New(m.mainWidth(), vpHeight)
	} else {
		m.viewport.Width = m.mainWidth()
		m.viewport.Height = vpHeight
	}
	m.input.SetWidth(m.mainWidth())
	m.refreshViewport(false)
}

// refreshViewport re-renders the message log from the store. When follow is
// true the view snaps to the newest message.
func (m *Model) refreshViewport(follow bool) {
	m.viewport.SetContent(m.renderMessages())
	if follow {
		m.viewport.GotoBottom()
	}
}

// View renders the whole surface.
func (m *Model) View() string {
	if !m.ready {
		return "loading…"
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.renderComposer(),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), " ", main)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatus())
}

func (m *Model) renderComposer() string {
	parts := []string{}
	if popup := m.renderSuggestions(); popup != "" {
		parts = append(parts, popup)
	}
	if m.locked {
		parts = append(parts, lockStyle.Render("⚠ plan limit reached — messaging locked"))
	}
	parts = append(parts, m.input.View())
	return strings.Join(parts, "\n")
}

func (m *Model) renderSidebar() string {
	channels := m.visibleChannels()
	lines := make([]string, 0, len(channels)+1)

	header := "channels"
	if m.filterActive || m.channelFilter != "" {
		header = "filter: " + m.channelFilter
	}
	lines = append(lines, metaStyle.Render(header))

	for i, ch := range channels {
		marker := "  "
		if ch.ID == m.store.ActiveID() {
			marker = "▸ "
		} else if engine.HasUnread(ch) {
			marker = "● "
		}
		label := truncate(marker+channelGlyph(ch.Kind)+ch.Name, sidebarWidth)

		switch {
		case m.focus == focusSidebar && i == m.channelIndex:
			label = selectedStyle.Render(label)
		case engine.HasUnread(ch) && ch.ID != m.store.ActiveID():
			label = unreadStyle.Render(label)
		}
		lines = append(lines, label)
	}

	return lipgloss.NewStyle().
		Width(sidebarWidth).
		Height(m.height - 1).
		Render(strings.Join(lines, "\n"))
}

func channelGlyph(kind types.ChannelKind) string {
	switch kind {
	case types.ChannelKindDM:
		return "@ "
	case types.ChannelKindRoom:
		return "~ "
	default:
		return "# "
	}
}

func (m *Model) renderMessages() string {
	messages := m.store.Messages()
	if len(messages) == 0 {
		return metaStyle.Render("no messages yet")
	}
	chunks := make([]string, 0, len(messages)+1)
	if _, hasMore := m.store.Paging(); hasMore {
		chunks = append(chunks, metaStyle.Render("· PgUp for older messages ·"))
	}
	for _, msg := range messages {
		chunks = append(chunks, m.formatMessage(msg))
	}
	return strings.Join(chunks, "\n\n")
}

func (m *Model) formatMessage(msg types.Message) string {
	author := m.directory.Label(msg.AuthorUserID)
	byline := lipgloss.NewStyle().Foreground(colorForAuthor(msg.AuthorUserID)).Bold(true).Render(author)

	meta := msg.CreatedAt.Local().Format("15:04")
	if msg.EditedAt != nil {
		meta += " (edited)"
	}
	if msg.Pending() {
		meta += " ⋯"
	}
	header := byline + "  " + metaStyle.Render(meta+"  "+shortID(msg.ID))

	if msg.DeletedAt != nil {
		return header + "\n" + deletedStyle.Render("(message deleted)")
	}

	body := msg.Body
	if msg.Pending() {
		body = pendingStyle.Render(body)
	}

	out := header + "\n" + body
	if tallies := types.TallyReactions(msg.Reactions); len(tallies) > 0 {
		parts := make([]string, 0, len(tallies))
		for _, tally := range tallies {
			part := fmt.Sprintf("%s %d", tally.Emoji, tally.Count)
			if containsString(tally.UserIDs, m.userID) {
				part = selectedStyle.Render(part)
			}
			parts = append(parts, part)
		}
		out += "\n" + metaStyle.Render(strings.Join(parts, "  "))
	}
	return out
}

func (m *Model) renderSuggestions() string {
	if len(m.suggestions) == 0 {
		return ""
	}
	lines := make([]string, 0, len(m.suggestions))
	for i, cand := range m.suggestions {
		line := cand.Label
		if cand.Email != "" {
			line += metaStyle.Render("  " + cand.Email)
		}
		if i == m.suggestionIndex {
			line = selectedStyle.Render("▸ ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return popupStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderStatus() string {
	if m.status != "" {
		return errorStyle.Render(truncate(m.status, m.width))
	}
	ch, ok := m.activeChannel()
	if !ok {
		return statusStyle.Render("ctrl+b channels · ctrl+c quit")
	}
	return statusStyle.Render(truncate(
		channelGlyph(ch.Kind)+ch.Name+"  ·  @ mention · /edit /rm /react · PgUp history",
		m.width))
}

func shortID(id string) string {
	if strings.HasPrefix(id, types.OptimisticPrefix) {
		return "#pending"
	}
	if len(id) > 6 {
		return "#" + id[len(id)-6:]
	}
	return "#" + id
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
