package feed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeID(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"bare string", `"abc123"`, "abc123"},
		{"bare string padded", `"  abc123 "`, "abc123"},
		{"underscore id object", `{"_id":"abc123"}`, "abc123"},
		{"plain id object", `{"id":"abc123"}`, "abc123"},
		{"underscore id wins", `{"_id":"first","id":"second"}`, "first"},
		{"empty object", `{}`, ""},
		{"garbage", `[1,2]`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, decodeID(json.RawMessage(tc.raw)))
		})
	}
}

func newTestFeed(fetch func(ctx context.Context) ([]record, error)) *Feed[record] {
	decode := func(raw json.RawMessage) (record, error) {
		var payload struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return record{}, err
		}
		return record{id: payload.ID, title: payload.Title}, nil
	}
	return NewFeed(NewCollection[record](), fetch, decode, Events{
		Created: "newRecord",
		Updated: "recordUpdated",
		Deleted: "recordDeleted",
	}, nil)
}

func TestFeedStartSeedsCollection(t *testing.T) {
	f := newTestFeed(func(ctx context.Context) ([]record, error) {
		return []record{{id: "a"}, {id: "b"}}, nil
	})

	require.NoError(t, f.Start(context.Background(), nil))
	assert.Equal(t, 2, f.Collection().Len())
}

func TestFeedRefreshPropagatesFetchError(t *testing.T) {
	boom := errors.New("backend down")
	f := newTestFeed(func(ctx context.Context) ([]record, error) {
		return nil, boom
	})

	err := f.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, f.Collection().Len())
}

func TestFeedRefreshClearsRecordsOnFetchError(t *testing.T) {
	boom := errors.New("backend down")
	healthy := true
	f := newTestFeed(func(ctx context.Context) ([]record, error) {
		if !healthy {
			return nil, boom
		}
		return []record{{id: "a"}, {id: "b"}}, nil
	})

	require.NoError(t, f.Refresh(context.Background()))
	require.Equal(t, 2, f.Collection().Len())

	// Records the backend may have deleted must not outlive the outage.
	healthy = false
	err := f.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, f.Collection().Len())
}

func TestFeedEventHandlers(t *testing.T) {
	f := newTestFeed(func(ctx context.Context) ([]record, error) {
		return nil, nil
	})
	require.NoError(t, f.Start(context.Background(), nil))

	f.onCreate(json.RawMessage(`{"id":"a","title":"first"}`))
	f.onUpdate(json.RawMessage(`{"id":"a","title":"second"}`))

	view := f.Collection().View()
	require.Len(t, view, 1)
	assert.Equal(t, "second", view[0].title)

	f.onDelete(json.RawMessage(`"a"`))
	assert.Zero(t, f.Collection().Len())

	// Malformed payloads are dropped, not applied.
	f.onCreate(json.RawMessage(`not json`))
	f.onDelete(json.RawMessage(`{}`))
	assert.Zero(t, f.Collection().Len())
}

func TestFeedStopClosesCollection(t *testing.T) {
	f := newTestFeed(func(ctx context.Context) ([]record, error) {
		return []record{{id: "a"}}, nil
	})
	require.NoError(t, f.Start(context.Background(), nil))

	f.Stop()
	f.onCreate(json.RawMessage(`{"id":"b"}`))
	assert.Equal(t, 1, f.Collection().Len())
}
