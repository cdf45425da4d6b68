package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver registration.
)

const timeLayout = "2006-01-02T15:04:05Z"

// DB wraps the sql.DB connection pool.
type DB struct {
	*sql.DB
}

// NewConnection opens the SQLite database at path. SQLite allows a single
// writer, so the pool is capped at one connection; this also keeps the
// ":memory:" DSN used in tests pointing at a single database.
func NewConnection(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &DB{DB: db}, nil
}
