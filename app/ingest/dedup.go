package ingest

import (
	"newsdeck/app/feed"
)

// FilterNew returns the candidates whose GUID is absent from the existing
// set, preserving input order. This is an optimization, not the correctness
// guarantee: the store's unique constraint on (feed_id, guid) remains the
// authoritative backstop for concurrent runs against the same feed.
func FilterNew(existing map[string]struct{}, candidates []feed.NormalizedItem) []feed.NormalizedItem {
	fresh := make([]feed.NormalizedItem, 0, len(candidates))
	for _, candidate := range candidates {
		if _, ok := existing[candidate.GUID]; !ok {
			fresh = append(fresh, candidate)
		}
	}
	return fresh
}
