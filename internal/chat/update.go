package chat

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/parcelops/hub/internal/api"
)

// Update routes events to the engine and keeps the view in sync.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		return m, nil

	case tea.FocusMsg:
		m.scheduler.SetVisible(true)
		return m, nil

	case tea.BlurMsg:
		m.scheduler.SetVisible(false)
		return m, nil

	case tickMsg:
		return m, m.handleTick(time.Time(msg))

	case pollResultMsg:
		m.handlePollResult(msg.result)
		return m, nil

	case bootstrapMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		// Open the first channel so the surface is immediately useful.
		channels := m.store.Channels()
		if len(channels) > 0 && m.store.ActiveID() == "" {
			return m, m.openChannelCmd(channels[0].ID)
		}
		return m, nil

	case openedMsg:
		if msg.err != nil {
			m.surfaceError(msg.err)
			return m, nil
		}
		m.locked = false
		m.status = ""
		m.input.SetValue(msg.draft)
		m.clearSuggestions()
		m.refreshViewport(true)
		return m, nil

	case sentMsg:
		if msg.err != nil {
			m.surfaceError(msg.err)
			return m, nil
		}
		m.status = ""
		m.refreshViewport(true)
		return m, nil

	case mutatedMsg:
		if msg.err != nil {
			m.surfaceError(msg.err)
		} else {
			m.status = ""
		}
		m.refreshViewport(false)
		return m, nil

	case olderMsg:
		if msg.err != nil {
			m.surfaceError(msg.err)
			return m, nil
		}
		m.refreshViewport(false)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.scheduler.StopAll()
		m.saveDraft()
		return m, tea.Quit
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	if handled, cmd := m.handleSuggestionKeys(msg); handled {
		return m, cmd
	}

	switch msg.Type {
	case tea.KeyCtrlB:
		m.focus = focusSidebar
		return m, nil
	case tea.KeyPgUp:
		return m, m.loadOlderCmd()
	case tea.KeyEnter:
		return m, m.handleSubmit(m.input.Value())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refreshSuggestions()
	return m, cmd
}

func (m *Model) handleSubmit(text string) tea.Cmd {
	body := strings.TrimSpace(text)
	if body == "" {
		return nil
	}
	if strings.HasPrefix(body, "/") {
		return m.handleCommand(body)
	}
	if m.locked {
		m.status = "Workspace plan limit reached; messaging is locked"
		return nil
	}
	channelID := m.store.ActiveID()
	if channelID == "" {
		m.status = "Select a channel to post"
		return nil
	}

	mentionedUserIDs := m.mentionedUserIDs(body)
	m.input.Reset()
	m.clearSuggestions()
	m.chosen = nil
	if m.cache != nil {
		_ = m.cache.SaveDraft(channelID, "")
	}
	return m.sendCmd(channelID, body, mentionedUserIDs)
}

// surfaceError maps the error taxonomy onto UI state: cancellations are
// invisible, entitlement errors lock the surface, everything else is a
// dismissible status line.
func (m *Model) surfaceError(err error) {
	if api.IsCanceled(err) {
		return
	}
	if api.IsEntitlement(err) {
		m.locked = true
		m.status = "Workspace plan limit reached; messaging is locked"
		return
	}
	m.status = err.Error()
}

func (m *Model) saveDraft() {
	if m.cache == nil {
		return
	}
	if channelID := m.store.ActiveID(); channelID != "" {
		_ = m.cache.SaveDraft(channelID, m.input.Value())
	}
}

func (m *Model) markActiveRead() {
	m.syncer.MarkActiveRead(context.Background())
}
