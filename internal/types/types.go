package types

import (
	"sort"
	"strings"
	"time"
)

// ChannelKind represents the category of a channel stream.
type ChannelKind string

const (
	ChannelKindBoard ChannelKind = "board"
	ChannelKindRoom  ChannelKind = "room"
	ChannelKindDM    ChannelKind = "dm"
)

// Channel represents one logical message stream in a workspace.
type Channel struct {
	ID            string      `json:"id"`
	WorkspaceID   string      `json:"workspace_id"`
	Kind          ChannelKind `json:"kind"`
	Name          string      `json:"name"`
	IsPrivate     bool        `json:"is_private"`
	LastMessageAt time.Time   `json:"last_message_at"`
	ArchivedAt    *time.Time  `json:"archived_at,omitempty"`
	ReadState     *ReadState  `json:"read_state,omitempty"`
}

// ReadState is the server's copy of a member's read position in a channel.
type ReadState struct {
	LastReadAt        time.Time `json:"last_read_at"`
	LastReadMessageID string    `json:"last_read_message_id"`
}

// OptimisticPrefix tags client-fabricated ids that have not been confirmed
// by the server. Merge recognizes these and preserves them across polls.
const OptimisticPrefix = "optimistic:"

// Message represents a channel message or call entry.
type Message struct {
	ID           string     `json:"id"`
	ChannelID    string     `json:"channel_id"`
	AuthorUserID string     `json:"author_user_id,omitempty"`
	Body         string     `json:"body"`
	ClientNonce  string     `json:"client_nonce,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	EditedAt     *time.Time `json:"edited_at,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	Reactions    []Reaction `json:"reactions,omitempty"`
	Mentions     []Mention  `json:"mentions,omitempty"`
}

// Pending reports whether the message is an unconfirmed local placeholder.
func (m Message) Pending() bool {
	return strings.HasPrefix(m.ID, OptimisticPrefix)
}

// Reaction represents one user's emoji reaction to a message.
type Reaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// Pending reports whether the reaction is an unconfirmed local placeholder.
func (r Reaction) Pending() bool {
	return strings.HasPrefix(r.ID, OptimisticPrefix)
}

// ReactionTally groups a message's reactions by emoji for display.
type ReactionTally struct {
	Emoji   string
	Count   int
	UserIDs []string
}

// TallyReactions collapses reactions into per-emoji groups, ordered by the
// first appearance of each emoji.
func TallyReactions(reactions []Reaction) []ReactionTally {
	order := make([]string, 0, len(reactions))
	byEmoji := make(map[string]*ReactionTally, len(reactions))
	for _, r := range reactions {
		tally, ok := byEmoji[r.Emoji]
		if !ok {
			tally = &ReactionTally{Emoji: r.Emoji}
			byEmoji[r.Emoji] = tally
			order = append(order, r.Emoji)
		}
		tally.Count++
		tally.UserIDs = append(tally.UserIDs, r.UserID)
	}
	out := make([]ReactionTally, 0, len(order))
	for _, emoji := range order {
		out = append(out, *byEmoji[emoji])
	}
	return out
}

// Mention records a user referenced by @label inside a message body.
type Mention struct {
	UserID string `json:"user_id"`
	Label  string `json:"label,omitempty"`
}

// MentionNotice is one entry of the mention-notification feed.
type MentionNotice struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	MessageID string    `json:"message_id"`
	Message   Message   `json:"message"`
}

// ReadCursor is the session-local read position for a channel.
type ReadCursor struct {
	LastReadMessageID string
	LastReadAt        time.Time
}

// After reports whether c is strictly newer than other by timestamp, with
// message id lexical order breaking ties.
func (c ReadCursor) After(other ReadCursor) bool {
	if c.LastReadAt.After(other.LastReadAt) {
		return true
	}
	if c.LastReadAt.Equal(other.LastReadAt) {
		return c.LastReadMessageID > other.LastReadMessageID
	}
	return false
}

// Member represents a workspace member from the directory.
type Member struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
}

// MentionCandidate is a read-only directory projection used for
// autocomplete ranking and author-label rendering.
type MentionCandidate struct {
	UserID string
	Label  string
	Email  string
}

// PageDirection selects which side of a cursor a message page covers.
type PageDirection string

const (
	PageBackward PageDirection = "backward"
	PageForward  PageDirection = "forward"
)

// MessageQuery controls a message page fetch.
type MessageQuery struct {
	ChannelID string
	CursorID  string
	Direction PageDirection
	Limit     int
}

// SortMessages orders messages by (createdAt, id) ascending in place.
func SortMessages(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if !messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].CreatedAt.Before(messages[j].CreatedAt)
		}
		return messages[i].ID < messages[j].ID
	})
}
