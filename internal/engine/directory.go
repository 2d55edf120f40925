package engine

import (
	"sort"
	"sync"

	"github.com/parcelops/hub/internal/types"
)

// Directory is an in-memory projection of the workspace member list, keyed
// by user id. It feeds mention autocomplete and author-label rendering; the
// engine consumes it but never mutates individual members.
type Directory struct {
	mu      sync.RWMutex
	byID    map[string]types.Member
	ordered []types.MentionCandidate
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{byID: make(map[string]types.Member)}
}

// Replace swaps in a fresh member list from the server.
func (d *Directory) Replace(members []types.Member) {
	byID := make(map[string]types.Member, len(members))
	ordered := make([]types.MentionCandidate, 0, len(members))
	for _, m := range members {
		if m.UserID == "" {
			continue
		}
		byID[m.UserID] = m
		label := m.Name
		if label == "" {
			label = m.Email
		}
		if label == "" {
			continue
		}
		ordered = append(ordered, types.MentionCandidate{
			UserID: m.UserID,
			Label:  label,
			Email:  m.Email,
		})
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Label < ordered[j].Label
	})

	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID = byID
	d.ordered = ordered
}

// Label resolves a user id to a display label, falling back to the id
// itself for users no longer in the directory.
func (d *Directory) Label(userID string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if m, ok := d.byID[userID]; ok {
		if m.Name != "" {
			return m.Name
		}
		if m.Email != "" {
			return m.Email
		}
	}
	return userID
}

// Member returns the full member record for a user id.
func (d *Directory) Member(userID string) (types.Member, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.byID[userID]
	return m, ok
}

// Candidates returns the alphabetized mention candidates.
func (d *Directory) Candidates() []types.MentionCandidate {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ordered
}

// Len returns the number of indexed members.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}
