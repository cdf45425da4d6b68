package feed

import (
	"time"
)

// NormalizedItem is one syndicated entry converted to canonical form, ready
// for the deduplication gate. The (FeedID, GUID) pair is its identity.
type NormalizedItem struct {
	FeedID      int64
	GUID        string
	Title       string
	Description string
	Content     string
	ImageURL    string // empty when no image could be resolved
	Link        string
	PublishedAt time.Time
}
