package engine

import (
	"sync"

	"github.com/parcelops/hub/internal/types"
)

// Store is the shared state container for the chat surfaces: the channel
// list, the active channel's message sequence, and the pagination cursors.
// It is owned by the composition root and passed by reference to the
// reconciling components so each is independently testable with a fresh
// container.
//
// The message slice is replaced whole on every update, never mutated in
// place, so a concurrently scheduled merge always sees a consistent value.
type Store struct {
	mu sync.RWMutex

	channels   []types.Channel
	activeID   string
	messages   []types.Message
	prevCursor string
	hasMore    bool
}

// NewStore creates an empty state container.
func NewStore() *Store {
	return &Store{}
}

// SetChannels replaces the channel list with a fresh server snapshot.
func (s *Store) SetChannels(channels []types.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = channels
}

// Channels returns the current channel list.
func (s *Store) Channels() []types.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channels
}

// Channel returns the channel record for an id, if present.
func (s *Store) Channel(channelID string) (types.Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.channels {
		if ch.ID == channelID {
			return ch, true
		}
	}
	return types.Channel{}, false
}

// SetActive switches the active channel and clears the message sequence.
// Poll results targeting the previous channel are discarded because their
// target no longer matches.
func (s *Store) SetActive(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == channelID {
		return
	}
	s.activeID = channelID
	s.messages = nil
	s.prevCursor = ""
	s.hasMore = false
}

// ActiveID returns the id of the active channel, or empty.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Messages returns the active channel's current message sequence.
func (s *Store) Messages() []types.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messages
}

// ReplaceMessages swaps in a new message sequence wholesale.
func (s *Store) ReplaceMessages(messages []types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = messages
}

// ApplyPage merges a server page into the active channel's sequence. The
// page is discarded when the target channel is no longer active; the next
// poll tick re-fetches for the current target. Returns the number of
// message ids not previously present, so callers can drive notifications
// and scroll behavior.
func (s *Store) ApplyPage(channelID string, page []types.Message) (applied bool, newCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channelID != s.activeID {
		return false, 0
	}
	known := make(map[string]struct{}, len(s.messages))
	for _, msg := range s.messages {
		known[msg.ID] = struct{}{}
	}
	merged := Merge(s.messages, page)
	for _, msg := range merged {
		if _, ok := known[msg.ID]; !ok {
			newCount++
		}
	}
	s.messages = merged
	return true, newCount
}

// SetPaging records the backward cursor state after a page load.
func (s *Store) SetPaging(prevCursor string, hasMore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prevCursor = prevCursor
	s.hasMore = hasMore
}

// Paging returns the backward cursor for "load older" and whether more
// history exists.
func (s *Store) Paging() (prevCursor string, hasMore bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prevCursor, s.hasMore
}

// Snapshot returns a copy of the active message sequence for rollback.
func (s *Store) Snapshot() []types.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make([]types.Message, len(s.messages))
	copy(snap, s.messages)
	return snap
}

// Latest returns the newest message in the active sequence, if any.
func (s *Store) Latest() (types.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.messages) == 0 {
		return types.Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Find returns the message with the given id, if present.
func (s *Store) Find(messageID string) (types.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, msg := range s.messages {
		if msg.ID == messageID {
			return msg, true
		}
	}
	return types.Message{}, false
}

// Update replaces a single message by id, leaving order intact. Returns
// false when the id is not present.
func (s *Store) Update(updated types.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, msg := range s.messages {
		if msg.ID == updated.ID {
			next := make([]types.Message, len(s.messages))
			copy(next, s.messages)
			next[i] = updated
			s.messages = next
			return true
		}
	}
	return false
}
