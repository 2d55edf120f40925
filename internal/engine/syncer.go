package engine

import (
	"context"
	"sync"
	"time"

	"github.com/parcelops/hub/internal/api"
	"github.com/parcelops/hub/internal/logger"
	"github.com/parcelops/hub/internal/types"
)

// DefaultPageSize is the message page size for loads and polls.
const DefaultPageSize = 50

// mentionCursorKey is the sink key under which the mention-feed watermark
// persists, alongside the per-channel read cursors.
const mentionCursorKey = "mentions"

// Fetcher is the read side of the Hub API the syncer drives.
type Fetcher interface {
	ListChannels(ctx context.Context, req api.ListChannelsRequest) (api.ListChannelsResponse, error)
	ListMessages(ctx context.Context, q types.MessageQuery) (api.ListMessagesResponse, error)
	ListMentions(ctx context.Context, limit int) (api.ListMentionsResponse, error)
	ListMembers(ctx context.Context) ([]types.Member, error)
}

// Syncer coordinates channel loads and poll fetches against the shared
// store. Poll results for a channel that is no longer active are dropped by
// the store's target check; the scheduler's per-target contexts cancel
// requests that outlive a navigation.
type Syncer struct {
	store     *Store
	reads     *ReadTracker
	directory *Directory
	scheduler *Scheduler
	client    Fetcher
	sink      CursorSink

	mu            sync.Mutex
	mentionCursor types.ReadCursor
}

// NewSyncer wires the syncer. sink may be nil.
func NewSyncer(store *Store, reads *ReadTracker, directory *Directory, scheduler *Scheduler, client Fetcher, sink CursorSink) *Syncer {
	return &Syncer{
		store:     store,
		reads:     reads,
		directory: directory,
		scheduler: scheduler,
		client:    client,
		sink:      sink,
	}
}

// SeedMentionCursor restores the mention-feed watermark, so old mentions do
// not re-notify on restart.
func (s *Syncer) SeedMentionCursor(cursor types.ReadCursor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cursor.After(s.mentionCursor) {
		s.mentionCursor = cursor
	}
}

// RefreshChannels fetches the channel list and overlays session read state.
func (s *Syncer) RefreshChannels(ctx context.Context) error {
	resp, err := s.client.ListChannels(ctx, api.ListChannelsRequest{})
	if err != nil {
		return err
	}
	s.store.SetChannels(s.reads.Reconcile(resp.Channels))
	return nil
}

// RefreshDirectory fetches the member directory.
func (s *Syncer) RefreshDirectory(ctx context.Context) error {
	members, err := s.client.ListMembers(ctx)
	if err != nil {
		return err
	}
	s.directory.Replace(members)
	return nil
}

// OpenChannel activates a channel: cancels polling for the previous one,
// loads the newest page, advances the read cursor, and starts the message
// poll target (whose kick fires shortly after).
func (s *Syncer) OpenChannel(ctx context.Context, channelID string, now time.Time) error {
	previous := s.store.ActiveID()
	if previous != "" && previous != channelID {
		s.scheduler.Stop(Target{Kind: TargetMessages, ChannelID: previous})
	}
	s.store.SetActive(channelID)

	resp, err := s.client.ListMessages(ctx, types.MessageQuery{
		ChannelID: channelID,
		Direction: types.PageBackward,
		Limit:     DefaultPageSize,
	})
	if err != nil {
		return err
	}
	applied, _ := s.store.ApplyPage(channelID, resp.Messages)
	if applied {
		s.store.SetPaging(resp.PrevCursor, resp.PrevCursor != "")
		s.reads.AdvanceToLatest(ctx, channelID, s.store.Messages())
	}
	s.scheduler.Start(now, Target{Kind: TargetMessages, ChannelID: channelID}, MessagePollInterval)
	return nil
}

// LoadOlder fetches the page before the oldest loaded message. All pages
// share the merge ordering key, so prepending is just another merge.
func (s *Syncer) LoadOlder(ctx context.Context) error {
	channelID := s.store.ActiveID()
	prevCursor, hasMore := s.store.Paging()
	if channelID == "" || !hasMore {
		return nil
	}
	resp, err := s.client.ListMessages(ctx, types.MessageQuery{
		ChannelID: channelID,
		CursorID:  prevCursor,
		Direction: types.PageBackward,
		Limit:     DefaultPageSize,
	})
	if err != nil {
		return err
	}
	if applied, _ := s.store.ApplyPage(channelID, resp.Messages); applied {
		s.store.SetPaging(resp.PrevCursor, resp.PrevCursor != "")
	}
	return nil
}

// PollMessages fetches messages newer than the last confirmed entry for the
// target channel and merges them. Returns how many previously unseen
// messages arrived; zero with a nil error when the result was discarded.
func (s *Syncer) PollMessages(ctx context.Context, channelID string) (int, error) {
	cursorID := ""
	for _, msg := range s.store.Messages() {
		// Optimistic ids are not valid server cursors.
		if !msg.Pending() {
			cursorID = msg.ID
		}
	}
	query := types.MessageQuery{
		ChannelID: channelID,
		Direction: types.PageForward,
		CursorID:  cursorID,
		Limit:     DefaultPageSize,
	}
	if cursorID == "" {
		query.Direction = types.PageBackward
	}
	resp, err := s.client.ListMessages(ctx, query)
	if err != nil {
		return 0, err
	}
	applied, newCount := s.store.ApplyPage(channelID, resp.Messages)
	if !applied {
		return 0, nil
	}
	return newCount, nil
}

// PollMentions fetches the mention-notification feed and returns entries
// newer than the session watermark, advancing and persisting it.
func (s *Syncer) PollMentions(ctx context.Context) ([]types.MentionNotice, error) {
	resp, err := s.client.ListMentions(ctx, DefaultPageSize)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fresh := make([]types.MentionNotice, 0, len(resp.Mentions))
	cursor := s.mentionCursor
	for _, notice := range resp.Mentions {
		at := types.ReadCursor{LastReadMessageID: notice.ID, LastReadAt: notice.CreatedAt}
		if !at.After(s.mentionCursor) {
			continue
		}
		fresh = append(fresh, notice)
		if at.After(cursor) {
			cursor = at
		}
	}
	if cursor.After(s.mentionCursor) {
		s.mentionCursor = cursor
		if s.sink != nil {
			_ = s.sink.SaveCursor(mentionCursorKey, cursor)
		}
	}
	return fresh, nil
}

// StartMentionPolling registers the global mention-feed target.
func (s *Syncer) StartMentionPolling(now time.Time) {
	s.scheduler.Start(now, Target{Kind: TargetMentions}, MentionPollInterval)
}

// PollResult is what one fired job produced.
type PollResult struct {
	Target      Target
	NewMessages int
	Mentions    []types.MentionNotice
}

// RunJob executes a fired poll job and reports completion to the
// scheduler. Poll failures are logged and swallowed; the target retries on
// its next interval. Cancellation is not an error.
func (s *Syncer) RunJob(job Job) PollResult {
	defer s.scheduler.Done(job.Target)

	result := PollResult{Target: job.Target}
	switch job.Target.Kind {
	case TargetMessages:
		n, err := s.PollMessages(job.Ctx, job.Target.ChannelID)
		if err != nil {
			if !api.IsCanceled(err) {
				logger.Log.Debug("message poll failed", "channel", job.Target.ChannelID, "err", err)
			}
			return result
		}
		result.NewMessages = n
	case TargetMentions:
		mentions, err := s.PollMentions(job.Ctx)
		if err != nil {
			if !api.IsCanceled(err) {
				logger.Log.Debug("mention poll failed", "err", err)
			}
			return result
		}
		result.Mentions = mentions
	}
	return result
}

// MarkActiveRead advances the active channel's cursor to its newest loaded
// message. Called when the user is looking at the channel as new messages
// arrive.
func (s *Syncer) MarkActiveRead(ctx context.Context) {
	channelID := s.store.ActiveID()
	if channelID == "" {
		return
	}
	s.reads.AdvanceToLatest(ctx, channelID, s.store.Messages())
}
