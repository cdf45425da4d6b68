package database

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// insertView writes a view event with an explicit timestamp, bypassing
// RecordView's now() so tests can shape the event log.
func insertView(t *testing.T, db *DB, userID string, newsID int64, at time.Time) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO view_events (user_id, news_id, created_at) VALUES (?, ?, ?)",
		userID, newsID, at.UTC().Format(timeLayout))
	if err != nil {
		t.Fatalf("insert view: %v", err)
	}
}

func insertBookmarkAt(t *testing.T, db *DB, userID string, newsID int64, at time.Time) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO bookmarks (user_id, news_id, created_at) VALUES (?, ?, ?)",
		userID, newsID, at.UTC().Format(timeLayout))
	if err != nil {
		t.Fatalf("insert bookmark: %v", err)
	}
}

func insertProfileAt(t *testing.T, db *DB, id string, at time.Time) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO profiles (id, role, created_at) VALUES (?, 'user', ?)",
		id, at.UTC().Format(timeLayout))
	if err != nil {
		t.Fatalf("insert profile: %v", err)
	}
}

// seedNewsInCategory creates a category, feed and one news item, returning
// the news id.
func seedNewsInCategory(t *testing.T, db *DB, category string, n int) []int64 {
	t.Helper()
	ctx := context.Background()
	feedRepo := NewFeedRepository(db)
	itemRepo := NewItemRepository(db)

	categoryID, err := feedRepo.UpsertCategory(ctx, category, "", "")
	if err != nil {
		t.Fatalf("upsert category: %v", err)
	}
	feedID, err := feedRepo.UpsertFeed(ctx, category+" Feed",
		fmt.Sprintf("https://example.com/%s", category), categoryID, true)
	if err != nil {
		t.Fatalf("upsert feed: %v", err)
	}

	var items []NewsItem
	for i := 0; i < n; i++ {
		items = append(items, NewsItem{
			FeedID:      feedID,
			GUID:        fmt.Sprintf("%s-%d", category, i),
			Title:       fmt.Sprintf("%s article %d", category, i),
			PublishedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		})
	}
	if _, err := itemRepo.InsertItems(ctx, items); err != nil {
		t.Fatalf("insert items: %v", err)
	}

	ids := make([]int64, 0, n)
	recent, err := itemRepo.GetRecentItems(ctx, feedID, n)
	if err != nil {
		t.Fatalf("recent items: %v", err)
	}
	for _, item := range recent {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestCountProfiles(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnalyticsRepository(db)
	ctx := context.Background()

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	insertProfileAt(t, db, "user-old", now.AddDate(0, 0, -30))
	insertProfileAt(t, db, "user-recent", now.AddDate(0, 0, -2))
	insertProfileAt(t, db, "user-new", now.AddDate(0, 0, -1))

	total, err := repo.CountProfiles(ctx, nil)
	if err != nil {
		t.Fatalf("count profiles: %v", err)
	}
	if total != 3 {
		t.Errorf("Expected 3 total profiles, got: %d", total)
	}

	since := now.AddDate(0, 0, -7)
	recent, err := repo.CountProfiles(ctx, &since)
	if err != nil {
		t.Fatalf("count recent profiles: %v", err)
	}
	if recent != 2 {
		t.Errorf("Expected 2 recent profiles, got: %d", recent)
	}
}

func TestDistinctViewerIDs(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnalyticsRepository(db)

	newsIDs := seedNewsInCategory(t, db, "Tech", 1)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	// Ten views from one user inside the window count once.
	for i := 0; i < 10; i++ {
		insertView(t, db, "heavy-reader", newsIDs[0], now.Add(-time.Duration(i)*time.Hour))
	}
	insertView(t, db, "other-reader", newsIDs[0], now.Add(-time.Hour))
	insertView(t, db, "out-of-window", newsIDs[0], now.AddDate(0, 0, -20))

	viewers, err := repo.DistinctViewerIDs(context.Background(), now.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("distinct viewers: %v", err)
	}

	sort.Strings(viewers)
	want := []string{"heavy-reader", "other-reader"}
	if diff := cmp.Diff(want, viewers); diff != "" {
		t.Errorf("DistinctViewerIDs mismatch (-want +got):\n%s", diff)
	}
}

func TestDailyCountsGroupsByDay(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnalyticsRepository(db)

	newsIDs := seedNewsInCategory(t, db, "Tech", 1)

	dayD := time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		insertView(t, db, "u1", newsIDs[0], dayD.Add(time.Duration(i)*time.Minute))
	}
	// Nothing on D+1.
	dayD2 := dayD.AddDate(0, 0, 2)
	for i := 0; i < 3; i++ {
		insertView(t, db, "u2", newsIDs[0], dayD2.Add(time.Duration(i)*time.Minute))
	}

	counts, err := repo.DailyCounts(context.Background(), EventViews, dayD.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("daily counts: %v", err)
	}

	want := map[string]int{
		"2024-05-08": 5,
		"2024-05-10": 3,
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("DailyCounts mismatch (-want +got):\n%s", diff)
	}
}

func TestDailyCountsBookmarks(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnalyticsRepository(db)

	newsIDs := seedNewsInCategory(t, db, "Tech", 1)
	day := time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC)
	insertBookmarkAt(t, db, "u1", newsIDs[0], day)

	counts, err := repo.DailyCounts(context.Background(), EventBookmarks, day.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("daily bookmark counts: %v", err)
	}
	if counts["2024-05-08"] != 1 {
		t.Errorf("Expected 1 bookmark on 2024-05-08, got: %d", counts["2024-05-08"])
	}
}

func TestDailyCountsUnknownKind(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnalyticsRepository(db)

	_, err := repo.DailyCounts(context.Background(), EventKind("likes"), time.Now())
	if err == nil {
		t.Error("Expected error for unknown event kind")
	}
}

func TestViewCountsByCategory(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnalyticsRepository(db)

	techIDs := seedNewsInCategory(t, db, "Tech", 2)
	sportsIDs := seedNewsInCategory(t, db, "Sports", 1)
	healthIDs := seedNewsInCategory(t, db, "Health", 1)
	seedNewsInCategory(t, db, "Unviewed", 1)

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		insertView(t, db, "u1", techIDs[i%2], now.Add(-time.Duration(i)*time.Minute))
	}
	for i := 0; i < 5; i++ {
		insertView(t, db, "u2", sportsIDs[0], now.Add(-time.Duration(i)*time.Minute))
	}
	for i := 0; i < 3; i++ {
		insertView(t, db, "u3", healthIDs[0], now.Add(-time.Duration(i)*time.Minute))
	}

	rollup, err := repo.ViewCountsByCategory(context.Background())
	if err != nil {
		t.Fatalf("category rollup: %v", err)
	}

	want := []CategoryCount{
		{Category: "Tech", Count: 12},
		{Category: "Sports", Count: 5},
		{Category: "Health", Count: 3},
	}
	if diff := cmp.Diff(want, rollup); diff != "" {
		t.Errorf("ViewCountsByCategory mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordViewAndBookmarkWrites(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnalyticsRepository(db)
	ctx := context.Background()

	newsIDs := seedNewsInCategory(t, db, "Tech", 1)

	if err := repo.CreateProfile(ctx, "reader", "user"); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if err := repo.RecordView(ctx, "reader", newsIDs[0]); err != nil {
		t.Fatalf("record view: %v", err)
	}
	if err := repo.AddBookmark(ctx, "reader", newsIDs[0]); err != nil {
		t.Fatalf("add bookmark: %v", err)
	}
	// Adding the same bookmark twice is a no-op, not an error.
	if err := repo.AddBookmark(ctx, "reader", newsIDs[0]); err != nil {
		t.Fatalf("re-add bookmark: %v", err)
	}

	var bookmarks int
	if err := db.QueryRow("SELECT COUNT(*) FROM bookmarks").Scan(&bookmarks); err != nil {
		t.Fatalf("count bookmarks: %v", err)
	}
	if bookmarks != 1 {
		t.Errorf("Expected 1 bookmark row, got: %d", bookmarks)
	}

	if err := repo.RemoveBookmark(ctx, "reader", newsIDs[0]); err != nil {
		t.Fatalf("remove bookmark: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM bookmarks").Scan(&bookmarks); err != nil {
		t.Fatalf("count bookmarks: %v", err)
	}
	if bookmarks != 0 {
		t.Errorf("Expected 0 bookmark rows after removal, got: %d", bookmarks)
	}
}
