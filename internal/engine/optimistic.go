package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parcelops/hub/internal/api"
	"github.com/parcelops/hub/internal/types"
)

// Mutator is the slice of the Hub API the optimistic tracker drives.
// *api.Client satisfies it; tests substitute function-field fakes.
type Mutator interface {
	CreateMessage(ctx context.Context, req api.CreateMessageRequest) (api.MessageResponse, error)
	EditMessage(ctx context.Context, messageID, body string) (api.MessageResponse, error)
	DeleteMessage(ctx context.Context, messageID string) error
	ToggleReaction(ctx context.Context, messageID, emoji string) error
}

// Optimistic applies user mutations to the store immediately and reconciles
// them against the server response: a confirmed send replaces its placeholder
// by nonce, a rejected mutation restores the pre-mutation snapshot. Every
// placeholder is either superseded or rolled back, never orphaned.
type Optimistic struct {
	store   *Store
	client  Mutator
	reads   *ReadTracker
	userID  string
	now     func() time.Time
	nonceFn func() string
}

// NewOptimistic creates the mutation tracker.
func NewOptimistic(store *Store, client Mutator, reads *ReadTracker, userID string) *Optimistic {
	return &Optimistic{
		store:   store,
		client:  client,
		reads:   reads,
		userID:  userID,
		now:     time.Now,
		nonceFn: uuid.NewString,
	}
}

// Send posts a message. The placeholder is visible in the store before the
// network call; on confirmation it is replaced via the same merge that polls
// use, so a poll that already delivered the confirmed copy cannot duplicate
// it. On failure the placeholder is removed and the error returned.
func (o *Optimistic) Send(ctx context.Context, channelID, body string, mentionedUserIDs []string) (types.Message, error) {
	if strings.TrimSpace(body) == "" {
		return types.Message{}, fmt.Errorf("%w: message body cannot be empty", api.ErrValidation)
	}
	if channelID == "" {
		return types.Message{}, fmt.Errorf("%w: no destination channel", api.ErrValidation)
	}

	nonce := o.nonceFn()
	mentions := make([]types.Mention, 0, len(mentionedUserIDs))
	for _, id := range mentionedUserIDs {
		mentions = append(mentions, types.Mention{UserID: id})
	}
	placeholder := types.Message{
		ID:           types.OptimisticPrefix + nonce,
		ChannelID:    channelID,
		AuthorUserID: o.userID,
		Body:         body,
		ClientNonce:  nonce,
		CreatedAt:    o.now(),
		Mentions:     mentions,
	}
	o.store.ApplyPage(channelID, []types.Message{placeholder})

	resp, err := o.client.CreateMessage(ctx, api.CreateMessageRequest{
		ChannelID:        channelID,
		Body:             body,
		ClientNonce:      nonce,
		MentionedUserIDs: mentionedUserIDs,
	})
	if err != nil {
		o.removeByID(channelID, placeholder.ID)
		return types.Message{}, err
	}

	confirmed := resp.Message
	if confirmed.ClientNonce == "" {
		confirmed.ClientNonce = nonce
	}
	o.store.ApplyPage(channelID, []types.Message{confirmed})
	if o.reads != nil {
		o.reads.Advance(ctx, channelID, types.ReadCursor{
			LastReadMessageID: confirmed.ID,
			LastReadAt:        confirmed.CreatedAt,
		})
	}
	return confirmed, nil
}

// Edit rewrites a message body optimistically. A rejected edit restores the
// full pre-edit sequence, not just the one field, because the edit may have
// raced an interleaved poll merge.
func (o *Optimistic) Edit(ctx context.Context, messageID, body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: message body cannot be empty", api.ErrValidation)
	}
	channelID := o.store.ActiveID()
	snapshot := o.store.Snapshot()

	msg, ok := o.store.Find(messageID)
	if !ok {
		return fmt.Errorf("%w: unknown message %s", api.ErrValidation, messageID)
	}
	editedAt := o.now()
	msg.Body = body
	msg.EditedAt = &editedAt
	o.store.Update(msg)

	resp, err := o.client.EditMessage(ctx, messageID, body)
	if err != nil {
		o.restore(channelID, snapshot)
		return err
	}
	o.store.ApplyPage(channelID, []types.Message{resp.Message})
	return nil
}

// Delete soft-hides a message optimistically; the entry stays in the
// sequence with deletedAt set. A rejected delete restores the snapshot.
func (o *Optimistic) Delete(ctx context.Context, messageID string) error {
	channelID := o.store.ActiveID()
	snapshot := o.store.Snapshot()

	msg, ok := o.store.Find(messageID)
	if !ok {
		return fmt.Errorf("%w: unknown message %s", api.ErrValidation, messageID)
	}
	deletedAt := o.now()
	msg.DeletedAt = &deletedAt
	o.store.Update(msg)

	if err := o.client.DeleteMessage(ctx, messageID); err != nil {
		o.restore(channelID, snapshot)
		return err
	}
	return nil
}

// ReactionID is the deterministic synthetic id for an optimistic reaction.
func ReactionID(messageID, emoji string) string {
	return types.OptimisticPrefix + messageID + ":" + emoji
}

// ToggleReaction flips the current user's reaction client-side, then issues
// the toggle call. A rejected toggle restores the pre-toggle snapshot so no
// synthetic entry is left behind.
func (o *Optimistic) ToggleReaction(ctx context.Context, messageID, emoji string) error {
	if emoji == "" {
		return fmt.Errorf("%w: emoji required", api.ErrValidation)
	}
	channelID := o.store.ActiveID()
	snapshot := o.store.Snapshot()

	msg, ok := o.store.Find(messageID)
	if !ok {
		return fmt.Errorf("%w: unknown message %s", api.ErrValidation, messageID)
	}

	had := false
	next := make([]types.Reaction, 0, len(msg.Reactions)+1)
	for _, r := range msg.Reactions {
		if r.UserID == o.userID && r.Emoji == emoji {
			had = true
			continue
		}
		next = append(next, r)
	}
	if !had {
		next = append(next, types.Reaction{
			ID:        ReactionID(messageID, emoji),
			UserID:    o.userID,
			Emoji:     emoji,
			CreatedAt: o.now(),
		})
	}
	msg.Reactions = next
	o.store.Update(msg)

	if err := o.client.ToggleReaction(ctx, messageID, emoji); err != nil {
		o.restore(channelID, snapshot)
		return err
	}
	return nil
}

func (o *Optimistic) removeByID(channelID, messageID string) {
	if o.store.ActiveID() != channelID {
		return
	}
	current := o.store.Messages()
	next := make([]types.Message, 0, len(current))
	for _, msg := range current {
		if msg.ID == messageID {
			continue
		}
		next = append(next, msg)
	}
	o.store.ReplaceMessages(next)
}

func (o *Optimistic) restore(channelID string, snapshot []types.Message) {
	// The user may have navigated away while the call was in flight; the
	// snapshot belongs to the old channel and must not clobber the new one.
	if o.store.ActiveID() != channelID {
		return
	}
	o.store.ReplaceMessages(snapshot)
}
