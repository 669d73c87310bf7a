package geocode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"photo-share/internal/logging"
)

const diskTimeout = 5 * time.Second

// DiskCache persists resolved place names in SQLite so restarts do not repeat lookups
// against a rate limited upstream.
type DiskCache struct {
	db  *sql.DB
	ttl time.Duration
}

// OpenDiskCache opens or creates the cache database at path. A zero ttl keeps entries forever.
func OpenDiskCache(ctx context.Context, path string, ttl time.Duration) (*DiskCache, error) {
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open geocode cache: %w", err)
	}

	initCtx, cancel := context.WithTimeout(ctx, diskTimeout)
	defer cancel()

	const schema = `
	CREATE TABLE IF NOT EXISTS places (
		coord TEXT PRIMARY KEY,
		place TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`
	if _, err := db.ExecContext(initCtx, schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close geocode cache after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize geocode cache: %w", err)
	}

	db.SetMaxOpenConns(4)
	logging.Info("Geocode disk cache opened at %s", path)
	return &DiskCache{db: db, ttl: ttl}, nil
}

// Get returns the cached place for key. Expired entries are reported as misses.
func (d *DiskCache) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, diskTimeout)
	defer cancel()

	var place string
	var created int64
	err := d.db.QueryRowContext(ctx, `SELECT place, created_at FROM places WHERE coord = ?`, key).Scan(&place, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if d.ttl > 0 && time.Since(time.Unix(created, 0)) > d.ttl {
		return "", false, nil
	}
	return place, true, nil
}

// Put stores place under key, replacing any previous entry.
func (d *DiskCache) Put(ctx context.Context, key, place string) error {
	ctx, cancel := context.WithTimeout(ctx, diskTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO places (coord, place, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(coord) DO UPDATE SET place = excluded.place, created_at = excluded.created_at`,
		key, place, time.Now().Unix())
	return err
}

// Prune deletes expired entries and returns how many were removed.
func (d *DiskCache) Prune(ctx context.Context) (int64, error) {
	if d.ttl <= 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, diskTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx, `DELETE FROM places WHERE created_at < ?`, time.Now().Add(-d.ttl).Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the database.
func (d *DiskCache) Close() error {
	return d.db.Close()
}
