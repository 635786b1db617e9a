package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteCache implements the Cache interface using a local SQLite database.
type SQLiteCache struct {
	db *sqlx.DB
}

// NewSQLiteCache opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	c := &SQLiteCache{db: db}
	if err := c.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return c, nil
}

// Close closes the underlying database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (c *SQLiteCache) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := c.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = c.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := c.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration %d: %w", m.version, err)
		}
	}

	return nil
}

// ReplaceRecords atomically replaces a domain's cached set.
func (c *SQLiteCache) ReplaceRecords(
	ctx context.Context,
	domain string,
	records []Record,
) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM records WHERE domain = ?", domain); err != nil {
		return fmt.Errorf("clearing cached %s records: %w", domain, err)
	}

	for _, r := range records {
		if r.ID == "" {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO records (domain, id, data, cached_at)
			 VALUES (?, ?, ?, ?)`,
			domain, r.ID, string(r.Data), time.Now().UTC())
		if err != nil {
			return fmt.Errorf("caching %s record %s: %w", domain, r.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO fetches (domain, fetched_at) VALUES (?, ?)
		 ON CONFLICT(domain) DO UPDATE SET fetched_at = excluded.fetched_at`,
		domain, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording fetch time for %s: %w", domain, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s cache replace: %w", domain, err)
	}
	return nil
}

// GetRecords returns a domain's cached set.
func (c *SQLiteCache) GetRecords(ctx context.Context, domain string) ([]Record, error) {
	var records []Record
	err := c.db.SelectContext(ctx, &records,
		"SELECT id, data FROM records WHERE domain = ?", domain)
	if err != nil {
		return nil, fmt.Errorf("reading cached %s records: %w", domain, err)
	}
	return records, nil
}

// PutRecord upserts one record.
func (c *SQLiteCache) PutRecord(ctx context.Context, domain string, record Record) error {
	if record.ID == "" {
		return nil
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO records (domain, id, data, cached_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(domain, id) DO UPDATE SET
			data = excluded.data,
			cached_at = excluded.cached_at`,
		domain, record.ID, string(record.Data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("caching %s record %s: %w", domain, record.ID, err)
	}
	return nil
}

// DeleteRecord removes one record.
func (c *SQLiteCache) DeleteRecord(ctx context.Context, domain, id string) error {
	_, err := c.db.ExecContext(ctx,
		"DELETE FROM records WHERE domain = ? AND id = ?", domain, id)
	if err != nil {
		return fmt.Errorf("deleting cached %s record %s: %w", domain, id, err)
	}
	return nil
}

// LastFetched returns when a domain was last bulk-fetched.
func (c *SQLiteCache) LastFetched(ctx context.Context, domain string) (time.Time, error) {
	var fetchedAt time.Time
	err := c.db.GetContext(ctx, &fetchedAt,
		"SELECT fetched_at FROM fetches WHERE domain = ?", domain)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading fetch time for %s: %w", domain, err)
	}
	return fetchedAt, nil
}

// Clear drops every cached record and fetch marker.
func (c *SQLiteCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("clearing record cache: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, "DELETE FROM fetches"); err != nil {
		return fmt.Errorf("clearing fetch markers: %w", err)
	}
	return nil
}
