package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"feedhook/app/feed"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store on an embedded SQLite database. Expiry is
// enforced at read time and reclaimed by PurgeExpired.
//
// Timestamps are stored as RFC 3339 UTC strings, which compare correctly as
// text at second precision.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
}

func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent workers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, _, err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{
		db:  db,
		ttl: ttl,
	}, nil
}

func (s *SQLiteStore) CheckExisting(ctx context.Context, hashes []string) ([]string, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(hashes))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, 0, len(hashes)+1)
	for _, hash := range hashes {
		args = append(args, hash)
	}
	args = append(args, formatTime(time.Now()))

	query := fmt.Sprintf(`
		SELECT hash FROM seen_items
		WHERE hash IN (%s) AND expires_at > ?
	`, placeholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing hashes: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool, len(hashes))
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan hash row: %w", err)
		}
		present[hash] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hash rows: %w", err)
	}

	// Preserve input order in the result
	existing := make([]string, 0, len(present))
	for _, hash := range hashes {
		if present[hash] {
			existing = append(existing, hash)
		}
	}
	return existing, nil
}

func (s *SQLiteStore) StoreItem(ctx context.Context, item feed.Item) error {
	expiresAt := formatTime(time.Now().Add(s.ttl))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO seen_items (hash, title, link, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (hash) DO UPDATE SET
			title = excluded.title,
			link = excluded.link,
			expires_at = excluded.expires_at
	`, item.LinkHash, item.Title, item.Link, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store item %s: %w", item.LinkHash, err)
	}
	return nil
}

func (s *SQLiteStore) GetMetrics(ctx context.Context, target string) (*Metrics, error) {
	var lastRun string
	var m Metrics

	err := s.db.QueryRowContext(ctx, `
		SELECT last_run, success_count, error_count, last_error
		FROM metrics WHERE target = ?
	`, target).Scan(&lastRun, &m.SuccessCount, &m.ErrorCount, &m.LastError)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics for %s: %w", target, err)
	}

	if lastRun != "" {
		t, err := time.Parse(time.RFC3339, lastRun)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last run time for %s: %w", target, err)
		}
		m.LastRun = t
	}
	return &m, nil
}

func (s *SQLiteStore) UpdateMetrics(ctx context.Context, target string, m Metrics) error {
	lastRun := ""
	if !m.LastRun.IsZero() {
		lastRun = formatTime(m.LastRun)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metrics (target, last_run, success_count, error_count, last_error)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (target) DO UPDATE SET
			last_run = excluded.last_run,
			success_count = excluded.success_count,
			error_count = excluded.error_count,
			last_error = excluded.last_error
	`, target, lastRun, m.SuccessCount, m.ErrorCount, m.LastError)
	if err != nil {
		return fmt.Errorf("failed to update metrics for %s: %w", target, err)
	}
	return nil
}

func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM seen_items WHERE expires_at <= ?", formatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired items: %w", err)
	}

	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get purged row count: %w", err)
	}
	return purged, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
