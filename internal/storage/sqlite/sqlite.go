// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY A KEY/VALUE TABLE?
// ──────────────────────
// The scoring code only ever asks for "the string under this key", with an
// optional expiry for cached scores. That is the Redis contract, so the
// SQLite backend mirrors it with one table instead of a relational schema.
// It is handy for local development: no server to start, and interests can
// be seeded with a plain INSERT.
//
// Expiry is stored as a unix nanosecond deadline and checked on read.
// Expired rows are treated as absent and overwritten by the next Set;
// nothing deletes them in the background.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/otus/scoring-api/internal/config"
	"github.com/otus/scoring-api/internal/storage"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB

	// now is the clock used for expiry, swapped in tests.
	now func() time.Time
}

// New opens the SQLite database at cfg.Store.StoragePath, creates the kv
// table if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	// sql.Open only validates the driver name; the file is opened on the
	// first query, which is the CREATE TABLE below.
	db, err := sql.Open("sqlite3", cfg.Store.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// CREATE TABLE IF NOT EXISTS is idempotent, so it runs on every startup.
	//
	// Schema:
	//   key       : "uid:<md5>" for cached scores, "i:<client id>" for interests
	//   value     : the stored string (a number, or a JSON list of interests)
	//   expires_at: unix nanoseconds; NULL for keys written without a ttl
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT    PRIMARY KEY,
			value      TEXT    NOT NULL,
			expires_at INTEGER
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db, now: time.Now}, nil
}

// Get returns the live value under key, or storage.ErrNotFound.
func (s *SQLite) Get(ctx context.Context, key string) (string, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT value FROM kv WHERE key = ? AND (expires_at IS NULL OR expires_at > ?) LIMIT 1",
	)
	if err != nil {
		return "", fmt.Errorf("Get: prepare: %w", err)
	}
	defer stmt.Close()

	var value string
	err = stmt.QueryRowContext(ctx, key, s.now().UnixNano()).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("Get: scan: %w", err)
	}

	return value, nil
}

// Set upserts value under key. A zero ttl stores the key without expiry.
//
// ON CONFLICT ... DO UPDATE turns the INSERT into an upsert, so rewriting a
// key (including an expired one) replaces both its value and its deadline.
func (s *SQLite) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	stmt, err := s.Db.PrepareContext(ctx, `
		INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`)
	if err != nil {
		return fmt.Errorf("Set: prepare: %w", err)
	}
	defer stmt.Close()

	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: s.now().Add(ttl).UnixNano(), Valid: true}
	}

	if _, err := stmt.ExecContext(ctx, key, value, expiresAt); err != nil {
		return fmt.Errorf("Set: exec: %w", err)
	}

	return nil
}

// Close releases the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}
