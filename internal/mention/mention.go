// Package mention implements caret-context parsing for @mention
// autocomplete: detecting an in-progress token from raw composer text,
// ranking directory candidates against it, and splicing a chosen candidate
// back into the text.
package mention

import (
	"sort"
	"strings"
	"unicode"

	"github.com/parcelops/hub/internal/types"
)

// MaxTokenLen bounds the scanned token so the detector stays O(caret) and
// long email-like or code-like runs never register as mention contexts.
const MaxTokenLen = 32

// CandidateLimit caps the suggestion list for display.
const CandidateLimit = 8

// Context describes an in-progress @token. Start and End are rune offsets:
// Start points at the '@', End is the caret, and Query is the text between.
type Context struct {
	Start int
	End   int
	Query string
}

// DetectContext scans left from the caret for an @token being composed.
// Returns nil when the caret is not inside one: no '@' before the caret,
// whitespace between the '@' and the caret, a non-boundary character
// immediately before the '@' (as in an email address), or a token longer
// than MaxTokenLen.
func DetectContext(text string, caret int) *Context {
	runes := []rune(text)
	if caret < 0 || caret > len(runes) {
		return nil
	}

	start := -1
	for i := caret - 1; i >= 0 && caret-i <= MaxTokenLen+1; i-- {
		r := runes[i]
		if r == '@' {
			start = i
			break
		}
		if unicode.IsSpace(r) {
			return nil
		}
	}
	if start < 0 {
		return nil
	}
	if start > 0 && !isBoundary(runes[start-1]) {
		return nil
	}
	return &Context{
		Start: start,
		End:   caret,
		Query: string(runes[start+1 : caret]),
	}
}

// isBoundary reports whether a rune may legitimately precede an '@' that
// opens a mention: whitespace, brackets, and quotes qualify; letters and
// digits (an email local part) do not.
func isBoundary(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '(', '[', '{', '<', '"', '\'', '`', ',', ';', ':':
		return true
	}
	return false
}

// Rank filters and orders directory candidates for a query: case-insensitive
// substring match against label and email, label-prefix matches first, then
// alphabetical by label, capped at CandidateLimit.
func Rank(candidates []types.MentionCandidate, query string) []types.MentionCandidate {
	normalized := strings.ToLower(query)

	type scored struct {
		candidate types.MentionCandidate
		prefix    bool
	}
	matched := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		label := strings.ToLower(c.Label)
		email := strings.ToLower(c.Email)
		if normalized != "" && !strings.Contains(label, normalized) && !strings.Contains(email, normalized) {
			continue
		}
		matched = append(matched, scored{
			candidate: c,
			prefix:    strings.HasPrefix(label, normalized),
		})
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].prefix != matched[j].prefix {
			return matched[i].prefix
		}
		return matched[i].candidate.Label < matched[j].candidate.Label
	})

	limit := len(matched)
	if limit > CandidateLimit {
		limit = CandidateLimit
	}
	out := make([]types.MentionCandidate, 0, limit)
	for _, s := range matched[:limit] {
		out = append(out, s.candidate)
	}
	return out
}

// ApplyChoice splices "@<label> " over the context range and returns the
// rewritten text with the caret positioned after the trailing space, so
// typing continues naturally.
func ApplyChoice(text string, ctx Context, choice types.MentionCandidate) (string, int) {
	runes := []rune(text)
	if ctx.Start < 0 || ctx.End > len(runes) || ctx.Start > ctx.End {
		return text, len(runes)
	}
	inserted := "@" + choice.Label + " "
	var b strings.Builder
	b.WriteString(string(runes[:ctx.Start]))
	b.WriteString(inserted)
	b.WriteString(string(runes[ctx.End:]))
	return b.String(), ctx.Start + len([]rune(inserted))
}

// MentionedUserIDs derives the user ids to send with a message: a chosen
// candidate counts only if its "@<label>" still literally appears in the
// final text, so labels removed by later edits are not sent as mentions.
func MentionedUserIDs(text string, chosen []types.MentionCandidate) []string {
	seen := make(map[string]struct{}, len(chosen))
	ids := make([]string, 0, len(chosen))
	for _, c := range chosen {
		if _, dup := seen[c.UserID]; dup {
			continue
		}
		if !strings.Contains(text, "@"+c.Label) {
			continue
		}
		seen[c.UserID] = struct{}{}
		ids = append(ids, c.UserID)
	}
	return ids
}
