package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/parcelops/hub/internal/api"
	"github.com/parcelops/hub/internal/types"
)

type fakeMutator struct {
	createFn func(req api.CreateMessageRequest) (api.MessageResponse, error)
	editFn   func(messageID, body string) (api.MessageResponse, error)
	deleteFn func(messageID string) error
	toggleFn func(messageID, emoji string) error
}

func (f *fakeMutator) CreateMessage(_ context.Context, req api.CreateMessageRequest) (api.MessageResponse, error) {
	return f.createFn(req)
}

func (f *fakeMutator) EditMessage(_ context.Context, messageID, body string) (api.MessageResponse, error) {
	return f.editFn(messageID, body)
}

func (f *fakeMutator) DeleteMessage(_ context.Context, messageID string) error {
	return f.deleteFn(messageID)
}

func (f *fakeMutator) ToggleReaction(_ context.Context, messageID, emoji string) error {
	return f.toggleFn(messageID, emoji)
}

func TestSendUnderConcurrentPoll(t *testing.T) {
	store := NewStore()
	store.SetActive("ch1")
	store.ReplaceMessages([]types.Message{msg("m1", 1)})

	client := &fakeMutator{
		createFn: func(req api.CreateMessageRequest) (api.MessageResponse, error) {
			// A poll page lands while the create call is in flight. It does
			// not carry the nonce yet; the placeholder must stay visible.
			store.ApplyPage("ch1", []types.Message{msg("m2", 2)})
			if !containsID(store.Messages(), types.OptimisticPrefix+req.ClientNonce) {
				t.Error("placeholder must survive a poll that does not carry its nonce")
			}
			return api.MessageResponse{Message: confirmed("m9", req.ClientNonce, 9)}, nil
		},
	}
	tracker := NewOptimistic(store, client, NewReadTracker(nil, nil), "me")

	sent, err := tracker.Send(context.Background(), "ch1", "hello", nil)
	if err != nil {
		t.Fatal(err)
	}
	if sent.ID != "m9" {
		t.Fatalf("confirmed id = %q, want m9", sent.ID)
	}
	assertIDs(t, store.Messages(), "m1", "m2", "m9")
}

func TestSendFailureRemovesPlaceholder(t *testing.T) {
	store := NewStore()
	store.SetActive("ch1")
	store.ReplaceMessages([]types.Message{msg("m1", 1)})

	rejected := errors.New("server rejected")
	client := &fakeMutator{
		createFn: func(api.CreateMessageRequest) (api.MessageResponse, error) {
			return api.MessageResponse{}, rejected
		},
	}
	tracker := NewOptimistic(store, client, NewReadTracker(nil, nil), "me")

	_, err := tracker.Send(context.Background(), "ch1", "hello", nil)
	if !errors.Is(err, rejected) {
		t.Fatalf("err = %v, want the server rejection", err)
	}
	assertIDs(t, store.Messages(), "m1")
}

func TestSendValidation(t *testing.T) {
	client := &fakeMutator{
		createFn: func(api.CreateMessageRequest) (api.MessageResponse, error) {
			t.Fatal("no network call should be made for invalid input")
			return api.MessageResponse{}, nil
		},
	}
	store := NewStore()
	store.SetActive("ch1")
	tracker := NewOptimistic(store, client, NewReadTracker(nil, nil), "me")

	if _, err := tracker.Send(context.Background(), "ch1", "   ", nil); !errors.Is(err, api.ErrValidation) {
		t.Fatalf("empty body: err = %v, want validation error", err)
	}
	if _, err := tracker.Send(context.Background(), "", "hello", nil); !errors.Is(err, api.ErrValidation) {
		t.Fatalf("missing channel: err = %v, want validation error", err)
	}
}

func TestSendAdvancesReadCursor(t *testing.T) {
	store := NewStore()
	store.SetActive("ch1")
	reads := NewReadTracker(nil, nil)
	client := &fakeMutator{
		createFn: func(req api.CreateMessageRequest) (api.MessageResponse, error) {
			return api.MessageResponse{Message: confirmed("m9", req.ClientNonce, 9)}, nil
		},
	}
	tracker := NewOptimistic(store, client, reads, "me")

	if _, err := tracker.Send(context.Background(), "ch1", "hello", nil); err != nil {
		t.Fatal(err)
	}
	cursor, ok := reads.Cursor("ch1")
	if !ok || cursor.LastReadMessageID != "m9" {
		t.Fatalf("own confirmed send should advance the read cursor, got %+v", cursor)
	}
}

func TestConcurrentSendsConfirmOutOfOrder(t *testing.T) {
	store := NewStore()
	store.SetActive("ch1")

	// Two sends are in flight at once; each placeholder is tracked by its
	// own nonce, so the confirmations may land in either order.
	store.ApplyPage("ch1", []types.Message{placeholder("na", 10), placeholder("nb", 11)})

	store.ApplyPage("ch1", []types.Message{confirmed("m21", "nb", 21)})
	store.ApplyPage("ch1", []types.Message{confirmed("m20", "na", 20)})

	assertIDs(t, store.Messages(), "m20", "m21")
}

func TestEditRollbackRestoresSnapshot(t *testing.T) {
	store := NewStore()
	store.SetActive("ch1")
	store.ReplaceMessages([]types.Message{msg("m1", 1), msg("m2", 2)})

	client := &fakeMutator{
		editFn: func(string, string) (api.MessageResponse, error) {
			// Verify the optimistic body was visible during the call.
			current, _ := store.Find("m1")
			if current.Body != "edited" || current.EditedAt == nil {
				return api.MessageResponse{}, errors.New("optimistic edit not applied")
			}
			return api.MessageResponse{}, &api.APIError{Status: 403}
		},
	}
	tracker := NewOptimistic(store, client, NewReadTracker(nil, nil), "me")

	before := store.Snapshot()
	if err := tracker.Edit(context.Background(), "m1", "edited"); err == nil {
		t.Fatal("expected edit rejection")
	}

	after := store.Messages()
	assertIDs(t, after, ids(before)...)
	restored, _ := store.Find("m1")
	if restored.Body != "body m1" || restored.EditedAt != nil {
		t.Fatalf("rollback should restore the full prior message, got %+v", restored)
	}
}

func TestEditSuccessAppliesServerCopy(t *testing.T) {
	store := NewStore()
	store.SetActive("ch1")
	store.ReplaceMessages([]types.Message{msg("m1", 1)})

	server := msg("m1", 1)
	server.Body = "server body"
	edited := ts(50)
	server.EditedAt = &edited

	client := &fakeMutator{
		editFn: func(string, string) (api.MessageResponse, error) {
			return api.MessageResponse{Message: server}, nil
		},
	}
	tracker := NewOptimistic(store, client, NewReadTracker(nil, nil), "me")

	if err := tracker.Edit(context.Background(), "m1", "local body"); err != nil {
		t.Fatal(err)
	}
	got, _ := store.Find("m1")
	if got.Body != "server body" {
		t.Fatalf("server truth should replace the optimistic edit, got %q", got.Body)
	}
}

func TestDeleteSoftHidesAndRollsBack(t *testing.T) {
	store := NewStore()
	store.SetActive("ch1")
	store.ReplaceMessages([]types.Message{msg("m1", 1)})

	fail := true
	client := &fakeMutator{
		deleteFn: func(string) error {
			if fail {
				return &api.APIError{Status: 500}
			}
			return nil
		},
	}
	tracker := NewOptimistic(store, client, NewReadTracker(nil, nil), "me")

	if err := tracker.Delete(context.Background(), "m1"); err == nil {
		t.Fatal("expected delete rejection")
	}
	got, _ := store.Find("m1")
	if got.DeletedAt != nil {
		t.Fatal("rejected delete must not leave deletedAt set")
	}

	fail = false
	if err := tracker.Delete(context.Background(), "m1"); err != nil {
		t.Fatal(err)
	}
	got, _ = store.Find("m1")
	if got.DeletedAt == nil {
		t.Fatal("confirmed delete should keep the entry with deletedAt set")
	}
	// Soft delete hides, never removes from the sequence.
	assertIDs(t, store.Messages(), "m1")
}

func TestToggleReactionAddAndRemove(t *testing.T) {
	store := NewStore()
	store.SetActive("ch1")
	store.ReplaceMessages([]types.Message{msg("m1", 1)})

	client := &fakeMutator{toggleFn: func(string, string) error { return nil }}
	tracker := NewOptimistic(store, client, NewReadTracker(nil, nil), "me")

	if err := tracker.ToggleReaction(context.Background(), "m1", "👍"); err != nil {
		t.Fatal(err)
	}
	got, _ := store.Find("m1")
	if len(got.Reactions) != 1 {
		t.Fatalf("reactions = %+v, want one synthetic entry", got.Reactions)
	}
	if got.Reactions[0].ID != ReactionID("m1", "👍") {
		t.Fatalf("synthetic id = %q", got.Reactions[0].ID)
	}
	if !got.Reactions[0].Pending() {
		t.Fatal("synthetic reaction should be recognizable as pending")
	}

	if err := tracker.ToggleReaction(context.Background(), "m1", "👍"); err != nil {
		t.Fatal(err)
	}
	got, _ = store.Find("m1")
	if len(got.Reactions) != 0 {
		t.Fatalf("second toggle should remove the reaction, got %+v", got.Reactions)
	}
}

func TestToggleReactionRollback(t *testing.T) {
	store := NewStore()
	store.SetActive("ch1")
	base := msg("m1", 1)
	base.Reactions = []types.Reaction{{ID: "r1", UserID: "them", Emoji: "🎉", CreatedAt: ts(1)}}
	store.ReplaceMessages([]types.Message{base})

	client := &fakeMutator{
		toggleFn: func(string, string) error { return &api.APIError{Status: 422} },
	}
	tracker := NewOptimistic(store, client, NewReadTracker(nil, nil), "me")

	if err := tracker.ToggleReaction(context.Background(), "m1", "👍"); err == nil {
		t.Fatal("expected toggle rejection")
	}
	got, _ := store.Find("m1")
	if len(got.Reactions) != 1 || got.Reactions[0].ID != "r1" {
		t.Fatalf("rejected toggle must restore the exact pre-toggle set, got %+v", got.Reactions)
	}
}

func containsID(messages []types.Message, id string) bool {
	for _, m := range messages {
		if m.ID == id {
			return true
		}
	}
	return false
}
