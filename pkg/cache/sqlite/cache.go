// Package sqlite is the persistent cache tier. It survives process restarts:
// fingerprint keys are stable, so a redeployed governor keeps its warm cache.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
)

// Cache is the slower persistent tier backed by SQLite.
type Cache struct {
	db *sql.DB
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key TEXT PRIMARY KEY,
	content_type TEXT NOT NULL,
	prompt TEXT NOT NULL,
	params TEXT NOT NULL,
	data BLOB NOT NULL,
	created_at DATETIME NOT NULL,
	ttl_seconds INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_type ON cache_entries(content_type);
CREATE INDEX IF NOT EXISTS idx_cache_created ON cache_entries(created_at);
`

// New opens the persistent cache tier and creates the schema.
func New(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	return &Cache{db: db}, nil
}

// Get retrieves an entry by fingerprint. Returns false if absent or expired.
func (c *Cache) Get(fp models.Fingerprint, now time.Time) ([]byte, time.Time, time.Duration, bool) {
	var data []byte
	var createdAt time.Time
	var ttlSeconds int64

	err := c.db.QueryRow(
		`SELECT data, created_at, ttl_seconds FROM cache_entries WHERE key = ?`,
		fp.Key(),
	).Scan(&data, &createdAt, &ttlSeconds)
	if err != nil {
		return nil, time.Time{}, 0, false
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if now.Sub(createdAt) > ttl {
		return nil, time.Time{}, 0, false
	}
	return data, createdAt, ttl, true
}

// Put stores an entry. On write failure it frees the oldest half of the
// table and retries once before giving up.
func (c *Cache) Put(fp models.Fingerprint, data []byte, ttl time.Duration, now time.Time) error {
	err := c.put(fp, data, ttl, now)
	if err == nil {
		return nil
	}
	if evictErr := c.evictOldestHalf(); evictErr != nil {
		return fmt.Errorf("cache put: %w (eviction also failed: %v)", err, evictErr)
	}
	if err := c.put(fp, data, ttl, now); err != nil {
		return fmt.Errorf("cache put after eviction: %w", err)
	}
	return nil
}

func (c *Cache) put(fp models.Fingerprint, data []byte, ttl time.Duration, now time.Time) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO cache_entries (key, content_type, prompt, params, data, created_at, ttl_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fp.Key(), string(fp.ContentType), fp.Prompt, fp.Params, data, now.UTC(), int64(ttl.Seconds()),
	)
	return err
}

// evictOldestHalf removes the oldest 50% of entries by creation time.
func (c *Cache) evictOldestHalf() error {
	_, err := c.db.Exec(
		`DELETE FROM cache_entries WHERE key IN (
			SELECT key FROM cache_entries ORDER BY created_at ASC
			LIMIT (SELECT COUNT(*)/2 FROM cache_entries)
		)`)
	return err
}

// Invalidate removes entries matching the filter and returns the count.
func (c *Cache) Invalidate(filter models.CacheFilter) (int64, error) {
	q := `DELETE FROM cache_entries WHERE 1=1`
	var args []any
	if filter.ContentType != "" {
		q += ` AND content_type = ?`
		args = append(args, string(filter.ContentType))
	}
	if filter.PromptContains != "" {
		q += ` AND prompt LIKE ?`
		args = append(args, "%"+filter.PromptContains+"%")
	}
	if filter.ParamsContains != "" {
		q += ` AND params LIKE ?`
		args = append(args, "%"+filter.ParamsContains+"%")
	}

	res, err := c.db.Exec(q, args...)
	if err != nil {
		return 0, fmt.Errorf("cache invalidate: %w", err)
	}
	return res.RowsAffected()
}

// Sweep deletes TTL-expired entries and returns the count removed.
func (c *Cache) Sweep(now time.Time) (int64, error) {
	res, err := c.db.Exec(
		`DELETE FROM cache_entries WHERE (julianday(?) - julianday(created_at)) * 86400 > ttl_seconds`,
		now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("cache sweep: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored entries.
func (c *Cache) Count() (int64, error) {
	var n int64
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM cache_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache count: %w", err)
	}
	return n, nil
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if _, err := c.db.Exec(`DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
