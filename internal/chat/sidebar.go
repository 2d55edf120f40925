package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gobwas/glob"

	"github.com/parcelops/hub/internal/types"
)

// visibleChannels applies the sidebar filter. Filters are glob patterns;
// a plain string matches as a substring.
func (m *Model) visibleChannels() []types.Channel {
	channels := m.store.Channels()
	filter := strings.TrimSpace(strings.ToLower(m.channelFilter))
	if filter == "" {
		return channels
	}
	if !strings.ContainsAny(filter, "*?[{") {
		filter = "*" + filter + "*"
	}
	pattern, err := glob.Compile(filter)
	if err != nil {
		return channels
	}
	out := make([]types.Channel, 0, len(channels))
	for _, ch := range channels {
		if pattern.Match(strings.ToLower(ch.Name)) {
			out = append(out, ch)
		}
	}
	return out
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	channels := m.visibleChannels()
	if m.channelIndex >= len(channels) {
		m.channelIndex = len(channels) - 1
	}
	if m.channelIndex < 0 {
		m.channelIndex = 0
	}

	if m.filterActive {
		switch msg.Type {
		case tea.KeyEsc:
			m.filterActive = false
			m.channelFilter = ""
			return m, nil
		case tea.KeyEnter:
			m.filterActive = false
			return m, nil
		case tea.KeyBackspace:
			if runes := []rune(m.channelFilter); len(runes) > 0 {
				m.channelFilter = string(runes[:len(runes)-1])
			}
			return m, nil
		case tea.KeyRunes:
			m.channelFilter += string(msg.Runes)
			m.channelIndex = 0
			return m, nil
		}
	}

	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlB:
		m.focus = focusComposer
		return m, nil
	case tea.KeyUp:
		if m.channelIndex > 0 {
			m.channelIndex--
		}
		return m, nil
	case tea.KeyDown:
		if m.channelIndex < len(channels)-1 {
			m.channelIndex++
		}
		return m, nil
	case tea.KeyEnter:
		if len(channels) == 0 {
			return m, nil
		}
		target := channels[m.channelIndex]
		m.focus = focusComposer
		if target.ID == m.store.ActiveID() {
			return m, nil
		}
		m.saveDraft()
		return m, m.openChannelCmd(target.ID)
	case tea.KeyRunes:
		if string(msg.Runes) == "/" {
			m.filterActive = true
			m.channelFilter = ""
		}
		return m, nil
	}
	return m, nil
}
