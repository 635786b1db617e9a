package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// record is a minimal Item for collection tests.
type record struct {
	id      string
	kind    string
	title   string
	body    string
	event   time.Time
	created time.Time
}

func (r record) Key() string            { return r.id }
func (r record) Kind() string           { return r.kind }
func (r record) SearchFields() []string { return []string{r.title, r.body} }
func (r record) OccurredAt() time.Time  { return r.event }
func (r record) PostedAt() time.Time    { return r.created }

func at(min int) time.Time {
	return time.Date(2026, 3, 1, 12, min, 0, 0, time.UTC)
}

func ids(items []record) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

func TestSeedReplacesContents(t *testing.T) {
	c := NewCollection[record]()
	c.Seed([]record{
		{id: "a", created: at(1)},
		{id: "b", created: at(2)},
	})
	c.Seed([]record{{id: "c", created: at(3)}})

	assert.Equal(t, []string{"c"}, ids(c.View()))
}

func TestSeedDropsRecordsWithoutID(t *testing.T) {
	c := NewCollection[record]()
	c.Seed([]record{{id: ""}, {id: "a", created: at(1)}})

	assert.Equal(t, 1, c.Len())
}

func TestApplyCreateIsIdempotent(t *testing.T) {
	c := NewCollection[record]()
	rec := record{id: "a", title: "first", created: at(1)}

	c.ApplyCreate(rec)
	c.ApplyCreate(rec)

	view := c.View()
	require.Len(t, view, 1)
	assert.Equal(t, "first", view[0].title)
}

func TestApplyCreateNotifiesOncePerID(t *testing.T) {
	var notified []string
	c := NewCollection(WithNotify(func(r record) {
		notified = append(notified, r.id)
	}))

	c.ApplyCreate(record{id: "a", created: at(1)})
	c.ApplyCreate(record{id: "a", created: at(2)})
	assert.Equal(t, []string{"a"}, notified)

	// Deleting re-arms the hook for that id.
	c.ApplyDelete("a")
	c.ApplyCreate(record{id: "a", created: at(3)})
	assert.Equal(t, []string{"a", "a"}, notified)
}

func TestApplyUpdateInsertsUnknownID(t *testing.T) {
	c := NewCollection[record]()

	// Delete and update arriving out of order must converge on the
	// record existing.
	c.ApplyDelete("a")
	c.ApplyUpdate(record{id: "a", title: "late", created: at(1)})

	view := c.View()
	require.Len(t, view, 1)
	assert.Equal(t, "late", view[0].title)
}

func TestApplyDeleteRemovesRecord(t *testing.T) {
	c := NewCollection[record]()
	c.Seed([]record{{id: "a", created: at(1)}, {id: "b", created: at(2)}})

	c.ApplyDelete("a")
	assert.Equal(t, []string{"b"}, ids(c.View()))

	// Unknown id is a no-op.
	c.ApplyDelete("missing")
	assert.Equal(t, 1, c.Len())
}

func TestSeedKeepsPushedRecordsOverFetchedCopies(t *testing.T) {
	c := NewCollection[record]()

	// A create pushed while the bulk fetch was in flight.
	c.ApplyCreate(record{id: "a", title: "v2", created: at(5)})

	// The racing fetch returns a stale copy of a plus a new record b.
	c.Seed([]record{
		{id: "a", title: "v1", created: at(1)},
		{id: "b", title: "other", created: at(2)},
	})

	view := c.View()
	require.Len(t, view, 2)
	byID := map[string]record{}
	for _, r := range view {
		byID[r.id] = r
	}
	assert.Equal(t, "v2", byID["a"].title)
	assert.Equal(t, "other", byID["b"].title)
}

func TestSeedPushedRecordSurvivesOneOmission(t *testing.T) {
	c := NewCollection[record]()
	c.ApplyCreate(record{id: "a", title: "pushed", created: at(5)})

	// First seed omits a entirely; the pushed record must not vanish.
	c.Seed([]record{{id: "b", created: at(1)}})
	assert.ElementsMatch(t, []string{"a", "b"}, ids(c.View()))

	// The push-origin mark was cleared, so the next seed is
	// authoritative and drops a.
	c.Seed([]record{{id: "b", created: at(1)}})
	assert.Equal(t, []string{"b"}, ids(c.View()))
}

func TestViewFiltersByCategory(t *testing.T) {
	c := NewCollection[record]()
	c.Seed([]record{
		{id: "a", kind: "Security", created: at(1)},
		{id: "b", kind: "Events", created: at(2)},
	})

	c.SetFilter(Criteria{Category: "Security"})
	assert.Equal(t, []string{"a"}, ids(c.View()))

	c.SetFilter(Criteria{Category: KindAll})
	assert.Len(t, c.View(), 2)

	c.SetFilter(Criteria{})
	assert.Len(t, c.View(), 2)
}

func TestViewSearchIsCaseInsensitiveSubstring(t *testing.T) {
	c := NewCollection[record]()
	c.Seed([]record{
		{id: "a", title: "Rising Water Level", created: at(1)},
		{id: "b", title: "Fire drill", body: "parking lot", created: at(2)},
		{id: "c", title: "Road work", created: at(3)},
	})

	c.SetFilter(Criteria{SearchTerm: "water"})
	assert.Equal(t, []string{"a"}, ids(c.View()))

	c.SetFilter(Criteria{SearchTerm: "PARKING"})
	assert.Equal(t, []string{"b"}, ids(c.View()))

	c.SetFilter(Criteria{SearchTerm: "zzz"})
	assert.Empty(t, c.View())
}

func TestViewDoesNotMutateCollection(t *testing.T) {
	c := NewCollection[record]()
	c.Seed([]record{
		{id: "a", kind: "Security", created: at(1)},
		{id: "b", kind: "Events", created: at(2)},
	})

	c.SetFilter(Criteria{Category: "Security"})
	assert.Len(t, c.View(), 1)

	// Clearing the filter exposes the full collection again: filtering
	// is a projection, not a mutation.
	c.SetFilter(Criteria{})
	assert.Len(t, c.View(), 2)
	assert.Equal(t, 2, c.Len())
}

func TestViewOrdersUrgentFirstThenNewest(t *testing.T) {
	c := NewCollection(WithUrgentKind[record]("Urgent"))
	c.Seed([]record{
		{id: "old-urgent", kind: "Urgent", created: at(1)},
		{id: "newest", kind: "Events", created: at(9)},
		{id: "older", kind: "Events", created: at(4)},
		{id: "new-urgent", kind: "Urgent", created: at(3)},
	})

	assert.Equal(t,
		[]string{"new-urgent", "old-urgent", "newest", "older"},
		ids(c.View()))
}

func TestViewPrefersEventTimeOverCreationTime(t *testing.T) {
	c := NewCollection[record]()
	c.Seed([]record{
		// Posted late but describes an earlier event.
		{id: "a", event: at(1), created: at(9)},
		{id: "b", created: at(5)},
	})

	assert.Equal(t, []string{"b", "a"}, ids(c.View()))
}

func TestViewIsDeterministicOnEqualTimes(t *testing.T) {
	c := NewCollection[record]()
	c.Seed([]record{
		{id: "b", created: at(1)},
		{id: "a", created: at(1)},
		{id: "c", created: at(1)},
	})

	first := ids(c.View())
	assert.Equal(t, []string{"a", "b", "c"}, first)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ids(c.View()))
	}
}

func TestCloseIgnoresLateEvents(t *testing.T) {
	notified := 0
	c := NewCollection(WithNotify(func(record) { notified++ }))
	c.Seed([]record{{id: "a", created: at(1)}})

	c.Close()
	c.ApplyCreate(record{id: "b", created: at(2)})
	c.ApplyDelete("a")
	c.Seed([]record{{id: "c", created: at(3)}})

	assert.Equal(t, []string{"a"}, ids(c.View()))
	assert.Zero(t, notified)
}

func TestLiveScenario(t *testing.T) {
	var notices []string
	c := NewCollection(
		WithUrgentKind[record]("Urgent"),
		WithNotify(func(r record) { notices = append(notices, r.id) }),
	)

	c.Seed([]record{
		{id: "a1", title: "Water interruption", kind: "Maintenance", created: at(1)},
		{id: "a2", title: "Fiesta schedule", kind: "Events", created: at(2)},
	})

	c.ApplyCreate(record{id: "a3", title: "Flood watch", kind: "Urgent", created: at(3)})
	c.ApplyUpdate(record{id: "a1", title: "Water interruption (extended)", kind: "Maintenance", created: at(1)})
	c.ApplyDelete("a2")

	view := c.View()
	require.Equal(t, []string{"a3", "a1"}, ids(view))
	assert.Equal(t, "Water interruption (extended)", view[1].title)
	assert.Equal(t, []string{"a3"}, notices)

	c.SetFilter(Criteria{SearchTerm: "flood"})
	assert.Equal(t, []string{"a3"}, ids(c.View()))
}
