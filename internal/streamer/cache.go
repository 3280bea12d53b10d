package streamer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Cache stores resolved stream URLs in SQLite until they expire
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Entry is a cached stream URL
type Entry struct {
	Account    string
	TrackID    string
	URL        string
	BatchID    string
	ResolvedAt time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the entry is no longer usable at t
func (e Entry) Expired(t time.Time) bool {
	return !t.Before(e.ExpiresAt)
}

// DefaultTTL is used when no TTL is configured
const DefaultTTL = 5 * time.Minute

// NewCache opens (or creates) the stream URL cache at dbPath.
// ttl is used for URLs that carry no expire parameter.
func NewCache(dbPath string, ttl time.Duration) (*Cache, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps in-memory databases consistent
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS streams (
			account TEXT NOT NULL,
			track_id TEXT NOT NULL,
			url TEXT NOT NULL,
			batch_id TEXT NOT NULL DEFAULT '',
			resolved_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL,
			PRIMARY KEY (account, track_id)
		);

		CREATE INDEX IF NOT EXISTS idx_expires_at ON streams(expires_at);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

// Close closes the database connection
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get returns the cached URL for a track if one exists and has not expired
func (c *Cache) Get(ctx context.Context, account, trackID string) (Entry, bool, error) {
	query := `
		SELECT account, track_id, url, batch_id, resolved_at, expires_at
		FROM streams
		WHERE account = ? AND track_id = ? AND expires_at > ?
	`

	row := c.db.QueryRowContext(ctx, query, normalizeAccount(account), trackID, c.now().Unix())
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read cached stream: %w", err)
	}

	return entry, true, nil
}

// Put stores a resolved URL, replacing any previous entry for the track.
// The expiry is taken from the URL's expire parameter when present.
func (c *Cache) Put(ctx context.Context, account, trackID, streamURL, batchID string) (Entry, error) {
	resolvedAt := c.now()
	entry := Entry{
		Account:    normalizeAccount(account),
		TrackID:    trackID,
		URL:        streamURL,
		BatchID:    batchID,
		ResolvedAt: resolvedAt,
		ExpiresAt:  ExpiresAt(streamURL, resolvedAt, c.ttl),
	}

	query := `
		INSERT INTO streams (account, track_id, url, batch_id, resolved_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(account, track_id) DO UPDATE SET
			url = excluded.url,
			batch_id = excluded.batch_id,
			resolved_at = excluded.resolved_at,
			expires_at = excluded.expires_at
	`

	_, err := c.db.ExecContext(ctx, query,
		entry.Account,
		entry.TrackID,
		entry.URL,
		entry.BatchID,
		entry.ResolvedAt.Unix(),
		entry.ExpiresAt.Unix(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to store stream: %w", err)
	}

	return entry, nil
}

// Prune removes expired entries and returns how many were deleted
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx, "DELETE FROM streams WHERE expires_at <= ?", c.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune streams: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// List returns cached entries, newest first, including expired ones.
// An empty account lists every account.
func (c *Cache) List(ctx context.Context, account string) ([]Entry, error) {
	query := `
		SELECT account, track_id, url, batch_id, resolved_at, expires_at
		FROM streams
	`
	var args []any
	if account != "" {
		query += " WHERE account = ?"
		args = append(args, normalizeAccount(account))
	}
	query += " ORDER BY resolved_at DESC, track_id ASC"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query streams: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stream: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating streams: %w", err)
	}

	return entries, nil
}

// Count returns the number of entries in the cache.
// If includeExpired is false, only live entries are counted.
func (c *Cache) Count(ctx context.Context, includeExpired bool) (int, error) {
	query := "SELECT COUNT(*) FROM streams"
	var args []any
	if !includeExpired {
		query += " WHERE expires_at > ?"
		args = append(args, c.now().Unix())
	}

	var count int
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count streams: %w", err)
	}

	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var resolvedUnix, expiresUnix int64

	if err := s.Scan(&e.Account, &e.TrackID, &e.URL, &e.BatchID, &resolvedUnix, &expiresUnix); err != nil {
		return Entry{}, err
	}

	e.ResolvedAt = time.Unix(resolvedUnix, 0)
	e.ExpiresAt = time.Unix(expiresUnix, 0)
	return e, nil
}

// ExpiresAt returns when a stream URL stops being valid. Signed stream URLs
// carry an expire parameter in unix seconds; anything else lives for ttl.
// A URL that is already past its expire time is never served from cache.
func ExpiresAt(streamURL string, resolvedAt time.Time, ttl time.Duration) time.Time {
	fallback := resolvedAt.Add(ttl)

	u, err := url.Parse(streamURL)
	if err != nil {
		return fallback
	}

	raw := u.Query().Get("expire")
	if raw == "" {
		return fallback
	}

	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return time.Unix(secs, 0)
}

func normalizeAccount(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}
