package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *SQLiteCache {
	t.Helper()
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestReplaceAndGetRecords(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	err := c.ReplaceRecords(ctx, "announcements", []Record{
		{ID: "a", Data: []byte(`{"title":"one"}`)},
		{ID: "b", Data: []byte(`{"title":"two"}`)},
		{ID: "", Data: []byte(`{"dropped":true}`)},
	})
	require.NoError(t, err)

	records, err := c.GetRecords(ctx, "announcements")
	require.NoError(t, err)
	require.Len(t, records, 2)

	byID := map[string]string{}
	for _, r := range records {
		byID[r.ID] = string(r.Data)
	}
	assert.JSONEq(t, `{"title":"one"}`, byID["a"])
	assert.JSONEq(t, `{"title":"two"}`, byID["b"])

	// A replace is authoritative for its domain.
	err = c.ReplaceRecords(ctx, "announcements", []Record{
		{ID: "c", Data: []byte(`{"title":"three"}`)},
	})
	require.NoError(t, err)

	records, err = c.GetRecords(ctx, "announcements")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "c", records[0].ID)
}

func TestDomainsAreIsolated(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.ReplaceRecords(ctx, "announcements", []Record{
		{ID: "a", Data: []byte(`{}`)},
	}))
	require.NoError(t, c.ReplaceRecords(ctx, "incidents", []Record{
		{ID: "i", Data: []byte(`{}`)},
	}))

	// Replacing one domain leaves the other untouched.
	require.NoError(t, c.ReplaceRecords(ctx, "announcements", nil))

	records, err := c.GetRecords(ctx, "incidents")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestPutRecordUpserts(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.PutRecord(ctx, "floods", Record{ID: "f", Data: []byte(`{"v":1}`)}))
	require.NoError(t, c.PutRecord(ctx, "floods", Record{ID: "f", Data: []byte(`{"v":2}`)}))

	records, err := c.GetRecords(ctx, "floods")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"v":2}`, string(records[0].Data))

	// Records without an id are silently skipped.
	require.NoError(t, c.PutRecord(ctx, "floods", Record{Data: []byte(`{}`)}))
	records, err = c.GetRecords(ctx, "floods")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestDeleteRecord(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.PutRecord(ctx, "visitors", Record{ID: "v", Data: []byte(`{}`)}))
	require.NoError(t, c.DeleteRecord(ctx, "visitors", "v"))

	records, err := c.GetRecords(ctx, "visitors")
	require.NoError(t, err)
	assert.Empty(t, records)

	// Deleting an absent record is not an error.
	assert.NoError(t, c.DeleteRecord(ctx, "visitors", "missing"))
}

func TestLastFetched(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	when, err := c.LastFetched(ctx, "announcements")
	require.NoError(t, err)
	assert.True(t, when.IsZero())

	require.NoError(t, c.ReplaceRecords(ctx, "announcements", nil))

	when, err = c.LastFetched(ctx, "announcements")
	require.NoError(t, err)
	assert.False(t, when.IsZero())
}

func TestClear(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.ReplaceRecords(ctx, "announcements", []Record{
		{ID: "a", Data: []byte(`{}`)},
	}))
	require.NoError(t, c.Clear(ctx))

	records, err := c.GetRecords(ctx, "announcements")
	require.NoError(t, err)
	assert.Empty(t, records)

	when, err := c.LastFetched(ctx, "announcements")
	require.NoError(t, err)
	assert.True(t, when.IsZero())
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")
	ctx := context.Background()

	c, err := NewSQLiteCache(path)
	require.NoError(t, err)
	require.NoError(t, c.PutRecord(ctx, "incidents", Record{ID: "i", Data: []byte(`{"v":1}`)}))
	require.NoError(t, c.Close())

	c, err = NewSQLiteCache(path)
	require.NoError(t, err)
	defer c.Close()

	records, err := c.GetRecords(ctx, "incidents")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "i", records[0].ID)
}
