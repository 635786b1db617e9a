package app

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/communisafe/communisafe/internal/api"
	"github.com/communisafe/communisafe/internal/feed"
	"github.com/communisafe/communisafe/internal/model"
	"github.com/communisafe/communisafe/internal/push"
	"github.com/communisafe/communisafe/internal/store"
)

// Cache domain names. Also used as feed labels in diagnostics.
const (
	domainAnnouncements = "announcements"
	domainNotifications = "notifications"
	domainFloods        = "floods"
	domainIncidents     = "incidents"
	domainVisitors      = "visitors"
)

// Feeds bundles the five live collections created at login.
type Feeds struct {
	Announcements *feed.Feed[model.Announcement]
	Notifications *feed.Feed[model.Notification]
	Floods        *feed.Feed[model.FloodAlert]
	Incidents     *feed.Feed[model.Incident]
	Visitors      *feed.Feed[model.VisitorRequest]

	log *slog.Logger
}

// newFeeds builds the per-domain feeds. notify receives a short banner
// text whenever a record is pushed while the app is running.
func newFeeds(client *api.Client, notify func(text string), log *slog.Logger) *Feeds {
	return &Feeds{
		Announcements: feed.NewAnnouncements(client, func(a model.Announcement) {
			notify("New announcement: " + a.Title)
		}, log),
		Notifications: feed.NewNotifications(client, func(n model.Notification) {
			notify("Notification: " + n.Title)
		}, log),
		Floods: feed.NewFloodAlerts(client, func(f model.FloodAlert) {
			notify("Flood report (" + f.Severity + "): " + f.Location)
		}, log),
		Incidents: feed.NewIncidents(client, func(i model.Incident) {
			notify("Incident reported: " + i.Type)
		}, log),
		Visitors: feed.NewVisitorRequests(client, nil, log),
		log:      log,
	}
}

// startAll subscribes every feed and runs the initial seeds. A fetch
// failure on one domain does not block the others; the first error is
// returned for the status line.
func (f *Feeds) startAll(ctx context.Context, ch *push.Channel) error {
	var firstErr error
	if err := f.Announcements.Start(ctx, ch); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := f.Notifications.Start(ctx, ch); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := f.Floods.Start(ctx, ch); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := f.Incidents.Start(ctx, ch); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := f.Visitors.Start(ctx, ch); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// stopAll unsubscribes and closes every feed, called on logout.
func (f *Feeds) stopAll() {
	f.Announcements.Stop()
	f.Notifications.Stop()
	f.Floods.Stop()
	f.Incidents.Stop()
	f.Visitors.Stop()
}

// refreshAll re-runs every bulk fetch, used by the manual refresh key.
func (f *Feeds) refreshAll(ctx context.Context) error {
	var firstErr error
	if err := f.Announcements.Refresh(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := f.Notifications.Refresh(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := f.Floods.Refresh(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := f.Incidents.Refresh(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := f.Visitors.Refresh(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// seedFromCache pre-populates the collections from the offline cache so
// stale data shows while the first fetch is in flight. The fetch result
// replaces it either way: cached records do not outlive a failed fetch.
func (f *Feeds) seedFromCache(ctx context.Context, cache store.Cache) {
	if cache == nil {
		return
	}
	seedDomain(ctx, cache, domainAnnouncements, f.Announcements.Collection(), f.log)
	seedDomain(ctx, cache, domainNotifications, f.Notifications.Collection(), f.log)
	seedDomain(ctx, cache, domainFloods, f.Floods.Collection(), f.log)
	seedDomain(ctx, cache, domainIncidents, f.Incidents.Collection(), f.log)
	seedDomain(ctx, cache, domainVisitors, f.Visitors.Collection(), f.log)
}

// mirrorToCache writes the current collection contents back to the
// offline cache. Called after fetches and push bursts settle.
func (f *Feeds) mirrorToCache(ctx context.Context, cache store.Cache) {
	if cache == nil {
		return
	}
	mirrorDomain(ctx, cache, domainAnnouncements, f.Announcements.Collection(), f.log)
	mirrorDomain(ctx, cache, domainNotifications, f.Notifications.Collection(), f.log)
	mirrorDomain(ctx, cache, domainFloods, f.Floods.Collection(), f.log)
	mirrorDomain(ctx, cache, domainIncidents, f.Incidents.Collection(), f.log)
	mirrorDomain(ctx, cache, domainVisitors, f.Visitors.Collection(), f.log)
}

// seedDomain loads one domain's cached records. Cached rows hold the
// canonical model JSON, so they decode without wire normalization.
func seedDomain[T feed.Item](
	ctx context.Context,
	cache store.Cache,
	domain string,
	col *feed.Collection[T],
	log *slog.Logger,
) {
	records, err := cache.GetRecords(ctx, domain)
	if err != nil {
		log.Warn("offline cache read failed", "domain", domain, "error", err)
		return
	}
	items := make([]T, 0, len(records))
	for _, r := range records {
		var item T
		if err := json.Unmarshal(r.Data, &item); err != nil {
			log.Warn("dropping undecodable cached record",
				"domain", domain, "id", r.ID, "error", err)
			continue
		}
		items = append(items, item)
	}
	if len(items) > 0 {
		col.Seed(items)
	}
}

// mirrorDomain writes one domain's current records to the cache.
func mirrorDomain[T feed.Item](
	ctx context.Context,
	cache store.Cache,
	domain string,
	col *feed.Collection[T],
	log *slog.Logger,
) {
	items := col.Snapshot()
	records := make([]store.Record, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			continue
		}
		records = append(records, store.Record{ID: item.Key(), Data: data})
	}
	if err := cache.ReplaceRecords(ctx, domain, records); err != nil {
		log.Warn("offline cache write failed", "domain", domain, "error", err)
	}
}

// itemsOf adapts a typed collection view to the feedview item slice.
func itemsOf[T feed.Item](col *feed.Collection[T]) func() []feed.Item {
	return func() []feed.Item {
		records := col.View()
		items := make([]feed.Item, len(records))
		for i, r := range records {
			items[i] = r
		}
		return items
	}
}
