package database

import (
	"time"
)

type Category struct {
	ID    int64
	Name  string
	Color string
	Icon  string
}

type Feed struct {
	ID         int64
	Title      string
	URL        string
	CategoryID int64
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FeedWithCategory carries the category name alongside a feed row for listings.
type FeedWithCategory struct {
	Feed
	CategoryName string
}

// NewsItem is an ingested article. Rows are written only by the ingestion
// pipeline and never mutated afterwards.
type NewsItem struct {
	ID          int64
	FeedID      int64
	GUID        string
	Title       string
	Description string
	Content     string
	ImageURL    string // empty when no image could be resolved
	URL         string
	PublishedAt time.Time
	CreatedAt   time.Time
}

type Profile struct {
	ID        string
	Role      string
	CreatedAt time.Time
}

type ViewEvent struct {
	ID        int64
	UserID    string
	NewsID    int64
	CreatedAt time.Time
}

type Bookmark struct {
	ID        int64
	UserID    string
	NewsID    int64
	CreatedAt time.Time
}

// CategoryCount is one row of the per-category view rollup.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
