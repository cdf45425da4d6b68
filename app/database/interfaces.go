package database

import (
	"context"
	"time"
)

type FeedRepository interface {
	GetFeed(ctx context.Context, id int64) (*Feed, error)
	ListActiveFeeds(ctx context.Context) ([]Feed, error)
	ListFeedsWithCategory(ctx context.Context) ([]FeedWithCategory, error)
	GetFeedCount(ctx context.Context) (int, error)

	UpsertCategory(ctx context.Context, name, color, icon string) (int64, error)
	ListCategories(ctx context.Context) ([]Category, error)

	UpsertFeed(ctx context.Context, title, url string, categoryID int64, active bool) (int64, error)
	SetFeedActive(ctx context.Context, id int64, active bool) error
}

type ItemRepository interface {
	// ExistingGUIDs returns the set of guid values already stored for one feed.
	ExistingGUIDs(ctx context.Context, feedID int64) (map[string]struct{}, error)

	// InsertItems stores a batch of news items and returns how many rows were
	// actually inserted. Items violating the (feed_id, guid) unique constraint
	// are skipped, not fatal.
	InsertItems(ctx context.Context, items []NewsItem) (int, error)

	GetItem(ctx context.Context, id int64) (*NewsItem, error)
	GetRecentItems(ctx context.Context, feedID int64, limit int) ([]NewsItem, error)
	GetItemCount(ctx context.Context, feedID int64) (int, error)
}

// EventKind selects which append-only event table a daily series reads from.
type EventKind string

const (
	EventViews     EventKind = "views"
	EventBookmarks EventKind = "bookmarks"
)

type AnalyticsRepository interface {
	// CountProfiles counts all profiles, or only those created since the given
	// time when since is non-nil.
	CountProfiles(ctx context.Context, since *time.Time) (int, error)
	DistinctViewerIDs(ctx context.Context, since time.Time) ([]string, error)
	DailyCounts(ctx context.Context, kind EventKind, since time.Time) (map[string]int, error)
	ViewCountsByCategory(ctx context.Context) ([]CategoryCount, error)

	CreateProfile(ctx context.Context, id, role string) error
	RecordView(ctx context.Context, userID string, newsID int64) error
	AddBookmark(ctx context.Context, userID string, newsID int64) error
	RemoveBookmark(ctx context.Context, userID string, newsID int64) error
}
