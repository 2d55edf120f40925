package engine

import (
	"github.com/parcelops/hub/internal/types"
)

// Merge combines a freshly fetched server page with the existing local
// sequence into one ordered, de-duplicated list. Server truth wins by id;
// unconfirmed placeholders survive until a confirmed message carrying their
// nonce supersedes them. The operation is idempotent: re-merging the same
// page yields the same result.
func Merge(existing, incoming []types.Message) []types.Message {
	byID := make(map[string]types.Message, len(existing)+len(incoming))
	confirmedNonces := make(map[string]struct{})

	for _, msg := range existing {
		byID[msg.ID] = msg
		if !msg.Pending() && msg.ClientNonce != "" {
			confirmedNonces[msg.ClientNonce] = struct{}{}
		}
	}
	for _, msg := range incoming {
		if msg.CreatedAt.IsZero() {
			// An unparseable timestamp would sort to the front and
			// silently break ordering; drop the entry instead.
			continue
		}
		byID[msg.ID] = msg
		if !msg.Pending() && msg.ClientNonce != "" {
			confirmedNonces[msg.ClientNonce] = struct{}{}
		}
	}

	merged := make([]types.Message, 0, len(byID))
	for _, msg := range byID {
		if msg.Pending() {
			if _, superseded := confirmedNonces[msg.ClientNonce]; superseded {
				continue
			}
		}
		merged = append(merged, msg)
	}

	types.SortMessages(merged)
	return merged
}
