package mention

import (
	"strings"
	"testing"

	"github.com/parcelops/hub/internal/types"
)

func TestDetectContext(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		caret     int
		wantStart int
		wantQuery string
		wantNil   bool
	}{
		{name: "token in progress", text: "hello @al", caret: 9, wantStart: 6, wantQuery: "al"},
		{name: "bare at sign", text: "hello @", caret: 7, wantStart: 6, wantQuery: ""},
		{name: "at start of string", text: "@al", caret: 3, wantStart: 0, wantQuery: "al"},
		{name: "after open paren", text: "(@al", caret: 4, wantStart: 1, wantQuery: "al"},
		{name: "email address", text: "a@b", caret: 3, wantNil: true},
		{name: "caret past the token", text: "@alice is here", caret: 12, wantNil: true},
		{name: "no at sign", text: "hello there", caret: 5, wantNil: true},
		{name: "caret before the at", text: "hi @al", caret: 2, wantNil: true},
		{name: "caret mid token", text: "hello @alice", caret: 9, wantStart: 6, wantQuery: "al"},
		{name: "token too long", text: "@" + strings.Repeat("x", 40), caret: 41, wantNil: true},
		{name: "caret out of range", text: "hi", caret: 10, wantNil: true},
		{name: "quoted mention", text: `"@al`, caret: 4, wantStart: 1, wantQuery: "al"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectContext(tt.text, tt.caret)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("DetectContext(%q, %d) = %+v, want nil", tt.text, tt.caret, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("DetectContext(%q, %d) = nil, want context", tt.text, tt.caret)
			}
			if got.Start != tt.wantStart || got.Query != tt.wantQuery {
				t.Fatalf("DetectContext(%q, %d) = {start:%d query:%q}, want {start:%d query:%q}",
					tt.text, tt.caret, got.Start, got.Query, tt.wantStart, tt.wantQuery)
			}
			if got.End != tt.caret {
				t.Fatalf("context end = %d, want caret %d", got.End, tt.caret)
			}
		})
	}
}

func directory() []types.MentionCandidate {
	return []types.MentionCandidate{
		{UserID: "u1", Label: "Alice Kim", Email: "alice@parcelops.test"},
		{UserID: "u2", Label: "Albert Shaw", Email: "albert@parcelops.test"},
		{UserID: "u3", Label: "Mallory Alford", Email: "mallory@parcelops.test"},
		{UserID: "u4", Label: "Bob Tran", Email: "bob@parcelops.test"},
	}
}

func TestRank(t *testing.T) {
	got := Rank(directory(), "al")
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
	// Prefix matches sort before the substring match, alphabetical within.
	if got[0].Label != "Albert Shaw" || got[1].Label != "Alice Kim" || got[2].Label != "Mallory Alford" {
		t.Fatalf("order = %q, %q, %q", got[0].Label, got[1].Label, got[2].Label)
	}
}

func TestRankMatchesEmail(t *testing.T) {
	got := Rank(directory(), "bob@")
	if len(got) != 1 || got[0].UserID != "u4" {
		t.Fatalf("email substring should match, got %+v", got)
	}
}

func TestRankEmptyQueryReturnsAll(t *testing.T) {
	got := Rank(directory(), "")
	if len(got) != 4 {
		t.Fatalf("empty query should return the whole directory, got %d", len(got))
	}
}

func TestRankCapsResults(t *testing.T) {
	many := make([]types.MentionCandidate, 0, 20)
	for i := 0; i < 20; i++ {
		many = append(many, types.MentionCandidate{UserID: string(rune('a' + i)), Label: "Agent " + string(rune('a'+i))})
	}
	if got := Rank(many, "agent"); len(got) != CandidateLimit {
		t.Fatalf("got %d candidates, want cap %d", len(got), CandidateLimit)
	}
}

func TestApplyChoice(t *testing.T) {
	text := "hey @al"
	ctx := DetectContext(text, 7)
	if ctx == nil {
		t.Fatal("expected context")
	}
	newText, caret := ApplyChoice(text, *ctx, types.MentionCandidate{UserID: "u1", Label: "Alice Kim"})
	if newText != "hey @Alice Kim " {
		t.Fatalf("text = %q, want %q", newText, "hey @Alice Kim ")
	}
	if caret != len([]rune("hey @Alice Kim ")) {
		t.Fatalf("caret = %d, want just past the trailing space", caret)
	}
}

func TestApplyChoicePreservesSuffix(t *testing.T) {
	text := "ping @al about the open house"
	ctx := DetectContext(text, 8)
	if ctx == nil {
		t.Fatal("expected context")
	}
	newText, caret := ApplyChoice(text, *ctx, types.MentionCandidate{UserID: "u1", Label: "Alice Kim"})
	want := "ping @Alice Kim  about the open house"
	if newText != want {
		t.Fatalf("text = %q, want %q", newText, want)
	}
	if caret != len([]rune("ping @Alice Kim ")) {
		t.Fatalf("caret = %d, want position after inserted text", caret)
	}
}

func TestMentionedUserIDs(t *testing.T) {
	chosen := []types.MentionCandidate{
		{UserID: "u1", Label: "Alice Kim"},
		{UserID: "u4", Label: "Bob Tran"},
	}

	ids := MentionedUserIDs("hey @Alice Kim can you take this?", chosen)
	if len(ids) != 1 || ids[0] != "u1" {
		t.Fatalf("ids = %v, want [u1]: a label edited away is not sent", ids)
	}

	ids = MentionedUserIDs("@Alice Kim @Bob Tran standup?", chosen)
	if len(ids) != 2 {
		t.Fatalf("ids = %v, want both", ids)
	}

	ids = MentionedUserIDs("no mentions left", chosen)
	if len(ids) != 0 {
		t.Fatalf("ids = %v, want none", ids)
	}
}

func TestMentionedUserIDsDeduplicates(t *testing.T) {
	chosen := []types.MentionCandidate{
		{UserID: "u1", Label: "Alice Kim"},
		{UserID: "u1", Label: "Alice Kim"},
	}
	ids := MentionedUserIDs("@Alice Kim twice @Alice Kim", chosen)
	if len(ids) != 1 {
		t.Fatalf("ids = %v, want one entry per user", ids)
	}
}
