package engine

import (
	"context"
	"sync"

	"github.com/parcelops/hub/internal/types"
)

// ReadMarker reports a read position to the server. Best-effort: failures
// leave the local cursor authoritative and the next advance retries.
type ReadMarker func(ctx context.Context, channelID, lastReadMessageID string) error

// CursorSink persists advanced cursors locally so read positions survive
// restarts. May be nil.
type CursorSink interface {
	SaveCursor(channelID string, cursor types.ReadCursor) error
}

// ReadTracker keeps the per-channel read cursor ledger. Cursors only ever
// move forward: every update is applied as a monotonic max, never an
// overwrite. Channels present in the local map were advanced this session,
// so the local value overrides whatever read state the server reports on a
// later channel-list refresh; channels outside the map trust the server.
type ReadTracker struct {
	mu      sync.RWMutex
	cursors map[string]types.ReadCursor
	mark    ReadMarker
	sink    CursorSink
}

// NewReadTracker creates a tracker. mark and sink may be nil.
func NewReadTracker(mark ReadMarker, sink CursorSink) *ReadTracker {
	return &ReadTracker{
		cursors: make(map[string]types.ReadCursor),
		mark:    mark,
		sink:    sink,
	}
}

// Seed loads previously persisted cursors without triggering server calls.
func (t *ReadTracker) Seed(cursors map[string]types.ReadCursor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for channelID, cursor := range cursors {
		if existing, ok := t.cursors[channelID]; ok && !cursor.After(existing) {
			continue
		}
		t.cursors[channelID] = cursor
	}
}

// Advance moves the channel's cursor forward to the given position. A
// position at or behind the stored cursor is ignored. On a real advance the
// new cursor is persisted and reported to the server.
func (t *ReadTracker) Advance(ctx context.Context, channelID string, cursor types.ReadCursor) bool {
	if channelID == "" || cursor.LastReadMessageID == "" {
		return false
	}
	t.mu.Lock()
	existing, ok := t.cursors[channelID]
	if ok && !cursor.After(existing) {
		t.mu.Unlock()
		return false
	}
	t.cursors[channelID] = cursor
	t.mu.Unlock()

	if t.sink != nil {
		_ = t.sink.SaveCursor(channelID, cursor)
	}
	if t.mark != nil {
		_ = t.mark(ctx, channelID, cursor.LastReadMessageID)
	}
	return true
}

// AdvanceToLatest advances to the newest message of a loaded sequence.
// Used when a channel is opened and when the user's own send confirms.
func (t *ReadTracker) AdvanceToLatest(ctx context.Context, channelID string, messages []types.Message) bool {
	if len(messages) == 0 {
		return false
	}
	latest := messages[len(messages)-1]
	return t.Advance(ctx, channelID, types.ReadCursor{
		LastReadMessageID: latest.ID,
		LastReadAt:        latest.CreatedAt,
	})
}

// Cursor returns the session cursor for a channel, if one was advanced or
// seeded this session.
func (t *ReadTracker) Cursor(channelID string) (types.ReadCursor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cursor, ok := t.cursors[channelID]
	return cursor, ok
}

// Reconcile overlays session cursors onto a freshly fetched channel list.
// The server's copy of read state may lag a mark-read call that already
// happened locally; the local map wins for channels it contains.
func (t *ReadTracker) Reconcile(channels []types.Channel) []types.Channel {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]types.Channel, len(channels))
	copy(out, channels)
	for i, ch := range out {
		local, ok := t.cursors[ch.ID]
		if !ok {
			continue
		}
		if ch.ReadState != nil {
			server := types.ReadCursor{
				LastReadMessageID: ch.ReadState.LastReadMessageID,
				LastReadAt:        ch.ReadState.LastReadAt,
			}
			if server.After(local) {
				// Server is ahead (read elsewhere); adopt it.
				t.cursors[ch.ID] = server
				continue
			}
		}
		out[i].ReadState = &types.ReadState{
			LastReadAt:        local.LastReadAt,
			LastReadMessageID: local.LastReadMessageID,
		}
	}
	return out
}

// HasUnread reports whether a channel has messages newer than its read
// cursor. Channels that never had a message are never unread.
func HasUnread(ch types.Channel) bool {
	if ch.LastMessageAt.IsZero() {
		return false
	}
	if ch.ReadState == nil {
		return true
	}
	return ch.LastMessageAt.After(ch.ReadState.LastReadAt)
}
