package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/communisafe/communisafe/internal/push"
)

// Events names the push-event triplet that drives one feed.
type Events struct {
	Created string
	Updated string
	Deleted string
}

// Feed binds a live collection to its data sources: the bulk-fetch endpoint
// that seeds it and the push events that mutate it. One feed is created per
// domain at login and lives until logout.
type Feed[T Item] struct {
	col    *Collection[T]
	fetch  func(ctx context.Context) ([]T, error)
	decode func(raw json.RawMessage) (T, error)
	events Events
	log    *slog.Logger

	cancels []func()
}

// NewFeed wires a collection to its fetch function and push events. Call
// Start to subscribe and seed.
func NewFeed[T Item](
	col *Collection[T],
	fetch func(ctx context.Context) ([]T, error),
	decode func(raw json.RawMessage) (T, error),
	events Events,
	log *slog.Logger,
) *Feed[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Feed[T]{
		col:    col,
		fetch:  fetch,
		decode: decode,
		events: events,
		log:    log,
	}
}

// Collection returns the underlying live collection.
func (f *Feed[T]) Collection() *Collection[T] { return f.col }

// Start subscribes to the push events and performs the initial seed. The
// subscriptions are registered before the fetch so a record created while
// the fetch is in flight is kept. A reconnect hook re-seeds the collection
// to cover the event gap of the outage.
func (f *Feed[T]) Start(ctx context.Context, ch *push.Channel) error {
	if ch != nil {
		f.cancels = append(f.cancels,
			ch.Subscribe(f.events.Created, f.onCreate),
			ch.Subscribe(f.events.Updated, f.onUpdate),
			ch.Subscribe(f.events.Deleted, f.onDelete),
			ch.OnReconnect(func() {
				if err := f.Refresh(context.Background()); err != nil {
					f.log.Warn("reseed after reconnect failed",
						"event", f.events.Created, "error", err)
				}
			}),
		)
	}
	return f.Refresh(ctx)
}

// Refresh re-runs the bulk fetch and seeds the collection with the result.
// A failed fetch seeds the collection empty: the backend is the source of
// truth, and records it may have deleted must not survive the outage.
func (f *Feed[T]) Refresh(ctx context.Context) error {
	items, err := f.fetch(ctx)
	if err != nil {
		f.col.Seed(nil)
		return fmt.Errorf("refreshing feed: %w", err)
	}
	f.col.Seed(items)
	return nil
}

// Stop unsubscribes from the push channel and closes the collection, so
// events delivered after logout are ignored.
func (f *Feed[T]) Stop() {
	for _, cancel := range f.cancels {
		cancel()
	}
	f.cancels = nil
	f.col.Close()
}

func (f *Feed[T]) onCreate(raw json.RawMessage) {
	item, err := f.decode(raw)
	if err != nil {
		f.log.Warn("dropping malformed create event",
			"event", f.events.Created, "error", err)
		return
	}
	f.col.ApplyCreate(item)
}

func (f *Feed[T]) onUpdate(raw json.RawMessage) {
	item, err := f.decode(raw)
	if err != nil {
		f.log.Warn("dropping malformed update event",
			"event", f.events.Updated, "error", err)
		return
	}
	f.col.ApplyUpdate(item)
}

func (f *Feed[T]) onDelete(raw json.RawMessage) {
	id := decodeID(raw)
	if id == "" {
		f.log.Warn("dropping delete event without id",
			"event", f.events.Deleted)
		return
	}
	f.col.ApplyDelete(id)
}

// decodeID extracts the record id from a delete payload, which arrives
// either as a bare JSON string or as an object carrying "_id" or "id".
func decodeID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		ID    string `json:"_id"`
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if obj.ID != "" {
		return obj.ID
	}
	return obj.AltID
}
