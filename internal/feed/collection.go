package feed

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// KindAll is the category filter value that matches every item.
const KindAll = "All"

// Item is one record tracked by a live collection. Every domain type
// (announcement, notification, flood alert, incident, visitor request)
// implements it.
type Item interface {
	// Key is the stable backend identifier and sole deduplication key.
	Key() string

	// Kind is the category tag used for filtering and priority ordering.
	Kind() string

	// SearchFields is the text the search filter matches against.
	SearchFields() []string

	// OccurredAt is the user-supplied event time, zero when none exists.
	OccurredAt() time.Time

	// PostedAt is the backend creation time, the ordering fallback.
	PostedAt() time.Time
}

// Criteria is the user-driven view state applied on top of a collection.
type Criteria struct {
	// SearchTerm is matched case-insensitively as a substring of the
	// item's search fields. Empty matches everything.
	SearchTerm string

	// Category must equal the item's Kind exactly; empty or KindAll
	// matches everything.
	Category string
}

// Collection holds a deduplicated set of records fed by an initial bulk
// fetch and a stream of push events, and exposes a filtered, sorted view.
// All entry points are safe for concurrent use: push handlers and UI
// commands run on separate goroutines, so the event-loop serialization the
// browser gave the original client becomes an explicit lock here.
type Collection[T Item] struct {
	mu         sync.Mutex
	entries    map[string]entry[T]
	seq        uint64
	criteria   Criteria
	urgentKind string
	notify     func(T)
	notified   map[string]bool
	closed     bool
	log        *slog.Logger
}

// entry wraps an item with its arrival-order sequence number. The backend
// supplies no revision counter, so arrival order is the only "latest wins"
// signal available; pushed marks entries delivered over the push channel
// since the last seed, which take precedence over a racing bulk fetch.
type entry[T Item] struct {
	item   T
	seq    uint64
	pushed bool
}

// Option configures a Collection.
type Option[T Item] func(*Collection[T])

// WithUrgentKind sets the category tag that sorts before all others.
func WithUrgentKind[T Item](kind string) Option[T] {
	return func(c *Collection[T]) { c.urgentKind = kind }
}

// WithNotify installs the user-visible notification hook fired by
// ApplyCreate, at most once per id until the id is deleted.
func WithNotify[T Item](fn func(T)) Option[T] {
	return func(c *Collection[T]) { c.notify = fn }
}

// WithLogger sets the logger used for degraded no-op events.
func WithLogger[T Item](log *slog.Logger) Option[T] {
	return func(c *Collection[T]) { c.log = log }
}

// NewCollection creates an empty live collection.
func NewCollection[T Item](opts ...Option[T]) *Collection[T] {
	c := &Collection[T]{
		entries:  make(map[string]entry[T]),
		notified: make(map[string]bool),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Seed replaces the held collection with the result of a bulk fetch.
// Entries that arrived over the push channel since the previous seed are
// kept in preference to the fetched copy of the same id, and survive being
// absent from the fetch payload once: a record created while the fetch was
// in flight must not vanish. Their push-origin mark is cleared so the next
// seed is fully authoritative.
func (c *Collection[T]) Seed(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	next := make(map[string]entry[T], len(items))
	for _, it := range items {
		key := it.Key()
		if key == "" {
			c.log.Warn("seed record without id dropped")
			continue
		}
		c.seq++
		next[key] = entry[T]{item: it, seq: c.seq}
	}

	for key, e := range c.entries {
		if !e.pushed {
			continue
		}
		e.pushed = false
		next[key] = e
	}

	c.entries = next
}

// ApplyCreate inserts a record delivered by a create push event,
// overwriting any existing record with the same id. The notification hook
// fires at most once per id; deleting the id re-arms it.
func (c *Collection[T]) ApplyCreate(item T) {
	c.mu.Lock()
	key := item.Key()
	if c.closed || key == "" {
		if key == "" && !c.closed {
			c.log.Warn("create event without id ignored")
		}
		c.mu.Unlock()
		return
	}

	c.seq++
	c.entries[key] = entry[T]{item: item, seq: c.seq, pushed: true}

	fire := c.notify != nil && !c.notified[key]
	if fire {
		c.notified[key] = true
	}
	c.mu.Unlock()

	// Hook runs outside the lock; it may call back into the collection.
	if fire {
		c.notify(item)
	}
}

// ApplyUpdate replaces the record with a matching id. An unknown id is
// inserted rather than dropped: update events legitimately race ahead of
// the initial seed and out-of-order delete/update pairs must converge on
// the record existing.
func (c *Collection[T]) ApplyUpdate(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := item.Key()
	if c.closed || key == "" {
		if key == "" && !c.closed {
			c.log.Warn("update event without id ignored")
		}
		return
	}

	c.seq++
	c.entries[key] = entry[T]{item: item, seq: c.seq, pushed: true}
}

// ApplyDelete removes the record with the given id, a no-op when absent.
func (c *Collection[T]) ApplyDelete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || id == "" {
		return
	}
	delete(c.entries, id)
	delete(c.notified, id)
}

// SetFilter updates the active view criteria without touching the
// underlying collection.
func (c *Collection[T]) SetFilter(criteria Criteria) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criteria = criteria
}

// Filter returns the active view criteria.
func (c *Collection[T]) Filter() Criteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.criteria
}

// Len returns the number of held records, ignoring the view criteria.
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// View returns the filtered, sorted projection of the collection: category
// and search filters applied, urgent-kind records first, then descending
// event/creation time. The ordering is a pure function of the collection
// and criteria, with the id as final tie-break, so consecutive calls
// without intervening mutation return equal sequences.
func (c *Collection[T]) View() []T {
	c.mu.Lock()
	criteria := c.criteria
	matched := make([]T, 0, len(c.entries))
	for _, e := range c.entries {
		if c.matches(e.item, criteria) {
			matched = append(matched, e.item)
		}
	}
	urgent := c.urgentKind
	c.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if urgent != "" && (a.Kind() == urgent) != (b.Kind() == urgent) {
			return a.Kind() == urgent
		}
		at, bt := effectiveTime(a), effectiveTime(b)
		if !at.Equal(bt) {
			return at.After(bt)
		}
		return a.Key() < b.Key()
	})

	return matched
}

// Snapshot returns every held record regardless of the view criteria, in
// no defined order. Used to mirror the collection into the offline cache.
func (c *Collection[T]) Snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, 0, len(c.entries))
	for _, e := range c.entries {
		items = append(items, e.item)
	}
	return items
}

// Close tears the collection down: every further mutation is ignored, so a
// late event cannot leak into a view that is no longer displayed.
func (c *Collection[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// matches applies the criteria to a single item. Caller holds the lock.
func (c *Collection[T]) matches(item T, criteria Criteria) bool {
	if criteria.Category != "" && criteria.Category != KindAll &&
		item.Kind() != criteria.Category {
		return false
	}
	if criteria.SearchTerm == "" {
		return true
	}
	term := strings.ToLower(criteria.SearchTerm)
	for _, field := range item.SearchFields() {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// effectiveTime returns the most specific timestamp available: the
// user-supplied event time when set, else the backend creation time.
func effectiveTime(it Item) time.Time {
	if t := it.OccurredAt(); !t.IsZero() {
		return t
	}
	return it.PostedAt()
}
