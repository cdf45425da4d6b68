package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type feedRepository struct {
	db *DB
}

// NewFeedRepository creates a repository for feed and category rows.
func NewFeedRepository(db *DB) FeedRepository {
	return &feedRepository{db: db}
}

func (r *feedRepository) GetFeed(ctx context.Context, id int64) (*Feed, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, url, category_id, active, created_at, updated_at
		FROM feeds WHERE id = ?`, id)

	feed, err := scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get feed: %w", err)
	}
	return feed, nil
}

func (r *feedRepository) ListActiveFeeds(ctx context.Context) ([]Feed, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, url, category_id, active, created_at, updated_at
		FROM feeds WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query active feeds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanFeeds(rows)
}

func (r *feedRepository) ListFeedsWithCategory(ctx context.Context) ([]FeedWithCategory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT f.id, f.title, f.url, f.category_id, f.active, f.created_at, f.updated_at, c.name
		FROM feeds f
		JOIN categories c ON c.id = f.category_id
		ORDER BY f.title`)
	if err != nil {
		return nil, fmt.Errorf("query feeds with category: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var feeds []FeedWithCategory
	for rows.Next() {
		var f FeedWithCategory
		var active int
		var createdAt, updatedAt string
		err := rows.Scan(&f.ID, &f.Title, &f.URL, &f.CategoryID, &active,
			&createdAt, &updatedAt, &f.CategoryName)
		if err != nil {
			return nil, fmt.Errorf("scan feed row: %w", err)
		}
		f.Active = active != 0
		f.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		f.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
		feeds = append(feeds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed rows: %w", err)
	}
	return feeds, nil
}

func (r *feedRepository) GetFeedCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count feeds: %w", err)
	}
	return count, nil
}

func (r *feedRepository) UpsertCategory(ctx context.Context, name, color, icon string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, color, icon)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET color = excluded.color, icon = excluded.icon
		RETURNING id`, name, color, icon).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert category: %w", err)
	}
	return id, nil
}

func (r *feedRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, color, icon FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return categories, nil
}

func (r *feedRepository) UpsertFeed(ctx context.Context, title, url string, categoryID int64, active bool) (int64, error) {
	now := time.Now().UTC().Format(timeLayout)
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO feeds (title, url, category_id, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			title = excluded.title,
			category_id = excluded.category_id,
			active = excluded.active,
			updated_at = excluded.updated_at
		RETURNING id`,
		title, url, categoryID, boolToInt(active), now, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert feed: %w", err)
	}
	return id, nil
}

func (r *feedRepository) SetFeedActive(ctx context.Context, id int64, active bool) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := r.db.ExecContext(ctx,
		"UPDATE feeds SET active = ?, updated_at = ? WHERE id = ?",
		boolToInt(active), now, id)
	if err != nil {
		return fmt.Errorf("set feed active: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeed(row rowScanner) (*Feed, error) {
	var f Feed
	var active int
	var createdAt, updatedAt string
	err := row.Scan(&f.ID, &f.Title, &f.URL, &f.CategoryID, &active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	f.Active = active != 0
	f.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	f.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return &f, nil
}

func scanFeeds(rows *sql.Rows) ([]Feed, error) {
	var feeds []Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed rows: %w", err)
	}
	return feeds, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
