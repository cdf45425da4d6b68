package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type itemRepository struct {
	db *DB
}

// NewItemRepository creates a repository for news item rows.
func NewItemRepository(db *DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) ExistingGUIDs(ctx context.Context, feedID int64) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT guid FROM news WHERE feed_id = ?", feedID)
	if err != nil {
		return nil, fmt.Errorf("query existing guids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	guids := make(map[string]struct{})
	for rows.Next() {
		var guid string
		if err := rows.Scan(&guid); err != nil {
			return nil, fmt.Errorf("scan guid: %w", err)
		}
		guids[guid] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guid rows: %w", err)
	}
	return guids, nil
}

// InsertItems writes a batch in one transaction. The ON CONFLICT DO NOTHING
// clause makes a duplicate (feed_id, guid) a skip rather than an error; the
// returned count reflects only rows actually inserted.
func (r *itemRepository) InsertItems(ctx context.Context, items []NewsItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO news (feed_id, guid, title, description, content, image_url, url, published_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (feed_id, guid) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, item := range items {
		createdAt := item.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		res, err := stmt.ExecContext(ctx,
			item.FeedID, item.GUID, item.Title, item.Description, item.Content,
			item.ImageURL, item.URL,
			item.PublishedAt.UTC().Format(timeLayout),
			createdAt.Format(timeLayout))
		if err != nil {
			return inserted, fmt.Errorf("insert item %q: %w", item.GUID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return inserted, nil
}

func (r *itemRepository) GetItem(ctx context.Context, id int64) (*NewsItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, feed_id, guid, title, description, content, image_url, url, published_at, created_at
		FROM news WHERE id = ?`, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetRecentItems returns items ordered newest first. A feedID of 0 spans all
// feeds.
func (r *itemRepository) GetRecentItems(ctx context.Context, feedID int64, limit int) ([]NewsItem, error) {
	query := `
		SELECT id, feed_id, guid, title, description, content, image_url, url, published_at, created_at
		FROM news`
	args := []any{}
	if feedID != 0 {
		query += " WHERE feed_id = ?"
		args = append(args, feedID)
	}
	query += " ORDER BY published_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []NewsItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item rows: %w", err)
	}
	return items, nil
}

func (r *itemRepository) GetItemCount(ctx context.Context, feedID int64) (int, error) {
	var count int
	var err error
	if feedID != 0 {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM news WHERE feed_id = ?", feedID).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM news").Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

func scanItem(row rowScanner) (*NewsItem, error) {
	var item NewsItem
	var publishedAt, createdAt string
	err := row.Scan(&item.ID, &item.FeedID, &item.GUID, &item.Title, &item.Description,
		&item.Content, &item.ImageURL, &item.URL, &publishedAt, &createdAt)
	if err != nil {
		return nil, err
	}
	item.PublishedAt, _ = time.Parse(timeLayout, publishedAt)
	item.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &item, nil
}
