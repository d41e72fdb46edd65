package httpcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is a stored response.
type Entry struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	StoredAt   time.Time
}

// SQLiteStore keeps cached responses in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS responses (
	key         TEXT PRIMARY KEY,
	status_code INTEGER NOT NULL,
	header      TEXT NOT NULL,
	body        BLOB NOT NULL,
	stored_at   INTEGER NOT NULL
);`

// NewSQLiteStore opens (creating if needed) the cache database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	// One process, one writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns the entry stored under key. A miss is (Entry{}, false, nil).
func (s *SQLiteStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT status_code, header, body, stored_at FROM responses WHERE key = ?`, key)

	var (
		e        Entry
		header   string
		storedAt int64
	)
	if err := row.Scan(&e.StatusCode, &header, &e.Body, &storedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("read cache entry: %w", err)
	}
	if err := json.Unmarshal([]byte(header), &e.Header); err != nil {
		return Entry{}, false, fmt.Errorf("decode cached header: %w", err)
	}
	e.StoredAt = time.UnixMilli(storedAt).UTC()
	return e, true, nil
}

// Put stores e under key, replacing any previous entry.
func (s *SQLiteStore) Put(ctx context.Context, key string, e Entry) error {
	header, err := json.Marshal(e.Header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO responses (key, status_code, header, body, stored_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			status_code = excluded.status_code,
			header = excluded.header,
			body = excluded.body,
			stored_at = excluded.stored_at`,
		key, e.StatusCode, string(header), e.Body, e.StoredAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Prune deletes entries stored before cutoff and returns how many were removed.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE stored_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
