package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/parcelops/hub/internal/engine"
)

// tickInterval drives the scheduler. The scheduler decides what is actually
// due; this just keeps time moving.
const tickInterval = 250 * time.Millisecond

type tickMsg time.Time

type pollResultMsg struct {
	result engine.PollResult
}

type bootstrapMsg struct {
	err error
}

type openedMsg struct {
	channelID string
	draft     string
	err       error
}

type sentMsg struct {
	err error
}

type mutatedMsg struct {
	action string
	err    error
}

type olderMsg struct {
	err error
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(at time.Time) tea.Msg {
		return tickMsg(at)
	})
}

func (m *Model) handleTick(at time.Time) tea.Cmd {
	jobs := m.scheduler.Due(at)
	cmds := make([]tea.Cmd, 0, len(jobs)+1)
	for _, job := range jobs {
		job := job
		cmds = append(cmds, func() tea.Msg {
			return pollResultMsg{result: m.syncer.RunJob(job)}
		})
	}
	cmds = append(cmds, m.tickCmd())
	return tea.Batch(cmds...)
}

func (m *Model) bootstrapCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := m.syncer.RefreshChannels(ctx); err != nil {
			return bootstrapMsg{err: err}
		}
		if err := m.syncer.RefreshDirectory(ctx); err != nil {
			return bootstrapMsg{err: err}
		}
		m.syncer.StartMentionPolling(time.Now())
		return bootstrapMsg{}
	}
}

func (m *Model) openChannelCmd(channelID string) tea.Cmd {
	return func() tea.Msg {
		if err := m.syncer.OpenChannel(context.Background(), channelID, time.Now()); err != nil {
			return openedMsg{channelID: channelID, err: err}
		}
		draft := ""
		if m.cache != nil {
			draft, _ = m.cache.LoadDraft(channelID)
		}
		return openedMsg{channelID: channelID, draft: draft}
	}
}

func (m *Model) sendCmd(channelID, body string, mentionedUserIDs []string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.optimistic.Send(context.Background(), channelID, body, mentionedUserIDs)
		return sentMsg{err: err}
	}
}

func (m *Model) loadOlderCmd() tea.Cmd {
	return func() tea.Msg {
		return olderMsg{err: m.syncer.LoadOlder(context.Background())}
	}
}

func (m *Model) handlePollResult(result engine.PollResult) {
	switch result.Target.Kind {
	case engine.TargetMessages:
		if result.Target.ChannelID != m.store.ActiveID() {
			return
		}
		if result.NewMessages > 0 {
			m.refreshViewport(true)
			m.syncer.MarkActiveRead(context.Background())
			// A successful load clears an entitlement lock.
			m.locked = false
		}
	case engine.TargetMentions:
		for _, notice := range result.Mentions {
			m.maybeNotify(notice)
		}
	}
}
