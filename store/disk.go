package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Disk is the persistent schema cache tier, a single-file SQLite database
// keyed by schema identity. Expired or unreadable rows are treated as
// absent, never as fatal.
type Disk struct {
	db  *sql.DB
	ttl time.Duration
}

// OpenDisk opens (creating if needed) the persistent tier at path.
func OpenDisk(path string, ttl time.Duration) (*Disk, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open schema cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &Disk{db: db, ttl: ttl}
	if err := d.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

func (d *Disk) init(ctx context.Context) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := d.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("apply pragma: %w", err)
		}
	}
	_, err := d.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_cache (
			identity   TEXT PRIMARY KEY,
			data       BLOB NOT NULL,
			fetched_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("init schema cache: %w", err)
	}
	return nil
}

// Close closes the database.
func (d *Disk) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Get returns the cached record for identity if present and fresh.
// An expired row is deleted and reported as absent.
func (d *Disk) Get(ctx context.Context, identity string) (Record, bool, error) {
	var data []byte
	var fetchedAt, expiresAt int64
	err := d.db.QueryRowContext(ctx,
		"SELECT data, fetched_at, expires_at FROM schema_cache WHERE identity = ?",
		identity,
	).Scan(&data, &fetchedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		// Unreadable rows are absent, not fatal.
		_, _ = d.db.ExecContext(ctx, "DELETE FROM schema_cache WHERE identity = ?", identity)
		return Record{}, false, nil
	}

	if time.Now().Unix() > expiresAt {
		_, _ = d.db.ExecContext(ctx, "DELETE FROM schema_cache WHERE identity = ?", identity)
		return Record{}, false, nil
	}
	if len(data) == 0 {
		_, _ = d.db.ExecContext(ctx, "DELETE FROM schema_cache WHERE identity = ?", identity)
		return Record{}, false, nil
	}

	return Record{
		Identity:  identity,
		Data:      data,
		FetchedAt: time.Unix(fetchedAt, 0),
	}, true, nil
}

// Put stores rec, replacing any previous row for the same identity.
func (d *Disk) Put(ctx context.Context, rec Record) error {
	fetched := rec.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}
	_, err := d.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO schema_cache (identity, data, fetched_at, expires_at) VALUES (?, ?, ?, ?)",
		rec.Identity, rec.Data, fetched.Unix(), fetched.Add(d.ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("persist schema %s: %w", rec.Identity, err)
	}
	return nil
}

// Prune deletes expired rows and returns how many were removed.
func (d *Disk) Prune(ctx context.Context) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		"DELETE FROM schema_cache WHERE expires_at < ?", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("prune schema cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Clear removes every row.
func (d *Disk) Clear(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM schema_cache"); err != nil {
		return fmt.Errorf("clear schema cache: %w", err)
	}
	return nil
}

// DiskStats describes the persistent tier.
type DiskStats struct {
	Entries    int64
	TotalBytes int64
}

// Stats returns entry count and total payload size.
func (d *Disk) Stats(ctx context.Context) (DiskStats, error) {
	var st DiskStats
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(LENGTH(data)), 0) FROM schema_cache",
	).Scan(&st.Entries, &st.TotalBytes)
	if err != nil {
		return DiskStats{}, fmt.Errorf("schema cache stats: %w", err)
	}
	return st, nil
}
