package chat

import (
	"github.com/gen2brain/beeep"

	"github.com/parcelops/hub/internal/logger"
	"github.com/parcelops/hub/internal/types"
)

// maybeNotify raises a desktop notification for a mention. Mentions the
// user authored, or that landed in the channel they are looking at, are
// skipped; delivery failures are logged rather than surfaced.
func (m *Model) maybeNotify(notice types.MentionNotice) {
	msg := notice.Message
	if msg.AuthorUserID == m.userID {
		return
	}
	if msg.ChannelID == m.store.ActiveID() {
		return
	}

	title := "Mention from " + m.directory.Label(msg.AuthorUserID)
	if ch, ok := m.store.Channel(msg.ChannelID); ok {
		title += " in " + ch.Name
	}
	if err := beeep.Notify(title, truncate(msg.Body, 120), ""); err != nil {
		logger.Log.Debug("notification failed", "err", err)
	}
}
