// Package store caches the most recent bulk-fetch result per domain so the
// app can show stale data while offline or before the first fetch lands.
package store

import (
	"context"
	"time"
)

// Record is one cached domain record, kept as the raw backend payload and
// decoded on read with the same normalization as a live fetch.
type Record struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

// Cache defines the offline persistence interface.
type Cache interface {
	// ReplaceRecords atomically replaces the cached set for a domain with
	// the result of a bulk fetch.
	ReplaceRecords(ctx context.Context, domain string, records []Record) error

	// GetRecords returns the cached set for a domain, in no defined order.
	GetRecords(ctx context.Context, domain string) ([]Record, error)

	// PutRecord upserts one record, mirroring a create or update push
	// event into the cache.
	PutRecord(ctx context.Context, domain string, record Record) error

	// DeleteRecord removes one record, mirroring a delete push event.
	DeleteRecord(ctx context.Context, domain, id string) error

	// LastFetched returns when a domain's cached set was last replaced,
	// zero when the domain has never been fetched.
	LastFetched(ctx context.Context, domain string) (time.Time, error)

	// Clear drops every cached record, called on logout.
	Clear(ctx context.Context) error

	Close() error
}
