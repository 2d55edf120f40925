package chat

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// handleCommand dispatches composer slash commands. The message id may be
// a full id or a unique suffix of one, so ids can be typed from the view.
func (m *Model) handleCommand(body string) tea.Cmd {
	fields := strings.Fields(body)
	name := strings.TrimPrefix(fields[0], "/")
	args := fields[1:]

	switch name {
	case "edit":
		if len(args) < 2 {
			m.status = "Usage: /edit <message-id> <new body>"
			return nil
		}
		id, ok := m.resolveMessageID(args[0])
		if !ok {
			return nil
		}
		newBody := strings.Join(args[1:], " ")
		m.input.Reset()
		m.clearSuggestions()
		return m.mutateCmd("edit", func(ctx context.Context) error {
			return m.optimistic.Edit(ctx, id, newBody)
		})

	case "rm", "delete":
		if len(args) != 1 {
			m.status = "Usage: /rm <message-id>"
			return nil
		}
		id, ok := m.resolveMessageID(args[0])
		if !ok {
			return nil
		}
		m.input.Reset()
		return m.mutateCmd("delete", func(ctx context.Context) error {
			return m.optimistic.Delete(ctx, id)
		})

	case "react":
		if len(args) != 2 {
			m.status = "Usage: /react <message-id> <emoji>"
			return nil
		}
		id, ok := m.resolveMessageID(args[0])
		if !ok {
			return nil
		}
		m.input.Reset()
		return m.mutateCmd("react", func(ctx context.Context) error {
			return m.optimistic.ToggleReaction(ctx, id, args[1])
		})

	case "read":
		m.input.Reset()
		m.markActiveRead()
		return nil

	default:
		m.status = "Unknown command: /" + name
		return nil
	}
}

func (m *Model) mutateCmd(action string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return mutatedMsg{action: action, err: fn(context.Background())}
	}
}

// resolveMessageID matches a typed id against the loaded window, accepting
// a unique suffix. Ambiguous or unknown ids set the status line.
func (m *Model) resolveMessageID(typed string) (string, bool) {
	var match string
	for _, msg := range m.store.Messages() {
		if msg.ID == typed {
			return typed, true
		}
		if strings.HasSuffix(msg.ID, typed) {
			if match != "" {
				m.status = "Ambiguous message id: " + typed
				return "", false
			}
			match = msg.ID
		}
	}
	if match == "" {
		m.status = "No loaded message matches " + typed
		return "", false
	}
	return match, true
}
