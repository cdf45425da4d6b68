package database

import (
	"context"
	"fmt"
	"time"
)

type analyticsRepository struct {
	db *DB
}

// NewAnalyticsRepository creates a repository over the append-only event log
// (view events, bookmarks) and the profile table.
func NewAnalyticsRepository(db *DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) CountProfiles(ctx context.Context, since *time.Time) (int, error) {
	var count int
	var err error
	if since != nil {
		err = r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM profiles WHERE created_at >= ?",
			since.UTC().Format(timeLayout)).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM profiles").Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return count, nil
}

func (r *analyticsRepository) DistinctViewerIDs(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT user_id FROM view_events WHERE created_at >= ?",
		since.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("query distinct viewers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan viewer id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate viewer rows: %w", err)
	}
	return ids, nil
}

// DailyCounts groups events by UTC calendar date. Days without events are
// absent from the map; the aggregator zero-fills the calendar.
func (r *analyticsRepository) DailyCounts(ctx context.Context, kind EventKind, since time.Time) (map[string]int, error) {
	table, err := eventTable(kind)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT substr(created_at, 1, 10) AS day, COUNT(*)
		FROM %s
		WHERE created_at >= ?
		GROUP BY day`, table),
		since.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("query daily counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}
		counts[day] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily count rows: %w", err)
	}
	return counts, nil
}

func (r *analyticsRepository) ViewCountsByCategory(ctx context.Context) ([]CategoryCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name, COUNT(*) AS cnt
		FROM view_events v
		JOIN news n ON n.id = v.news_id
		JOIN feeds f ON f.id = n.feed_id
		JOIN categories c ON c.id = f.category_id
		GROUP BY c.name
		ORDER BY cnt DESC, c.name`)
	if err != nil {
		return nil, fmt.Errorf("query category counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var counts []CategoryCount
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts = append(counts, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category count rows: %w", err)
	}
	return counts, nil
}

func (r *analyticsRepository) CreateProfile(ctx context.Context, id, role string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO profiles (id, role, created_at) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING",
		id, role, now)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (r *analyticsRepository) RecordView(ctx context.Context, userID string, newsID int64) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO view_events (user_id, news_id, created_at) VALUES (?, ?, ?)",
		userID, newsID, now)
	if err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

func (r *analyticsRepository) AddBookmark(ctx context.Context, userID string, newsID int64) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bookmarks (user_id, news_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, news_id) DO NOTHING`,
		userID, newsID, now)
	if err != nil {
		return fmt.Errorf("add bookmark: %w", err)
	}
	return nil
}

func (r *analyticsRepository) RemoveBookmark(ctx context.Context, userID string, newsID int64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM bookmarks WHERE user_id = ? AND news_id = ?", userID, newsID)
	if err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	return nil
}

func eventTable(kind EventKind) (string, error) {
	switch kind {
	case EventViews:
		return "view_events", nil
	case EventBookmarks:
		return "bookmarks", nil
	default:
		return "", fmt.Errorf("unknown event kind: %s", kind)
	}
}
