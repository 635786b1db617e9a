package feed

import (
	"context"
	"log/slog"

	"github.com/communisafe/communisafe/internal/api"
	"github.com/communisafe/communisafe/internal/model"
)

// Per-domain feed constructors. Each pairs a bulk-fetch endpoint with its
// push-event triplet; event names follow the backend's socket protocol.

// NewAnnouncements builds the announcements feed. Urgent announcements
// sort above all others, and notify fires for every announcement pushed
// while the app is running.
func NewAnnouncements(
	c *api.Client,
	notify func(model.Announcement),
	log *slog.Logger,
) *Feed[model.Announcement] {
	opts := []Option[model.Announcement]{
		WithUrgentKind[model.Announcement](model.CategoryUrgent),
		WithLogger[model.Announcement](log),
	}
	if notify != nil {
		opts = append(opts, WithNotify(notify))
	}
	return NewFeed(
		NewCollection(opts...),
		func(ctx context.Context) ([]model.Announcement, error) {
			return c.ListAnnouncements(ctx)
		},
		api.DecodeAnnouncement,
		Events{
			Created: "newAnnouncement",
			Updated: "announcementUpdated",
			Deleted: "announcementDeleted",
		},
		log,
	)
}

// NewNotifications builds the notifications feed.
func NewNotifications(
	c *api.Client,
	notify func(model.Notification),
	log *slog.Logger,
) *Feed[model.Notification] {
	opts := []Option[model.Notification]{
		WithLogger[model.Notification](log),
	}
	if notify != nil {
		opts = append(opts, WithNotify(notify))
	}
	return NewFeed(
		NewCollection(opts...),
		func(ctx context.Context) ([]model.Notification, error) {
			return c.ListNotifications(ctx)
		},
		api.DecodeNotification,
		Events{
			Created: "newNotification",
			Updated: "notificationUpdated",
			Deleted: "notificationDeleted",
		},
		log,
	)
}

// NewFloodAlerts builds the flood reports feed.
func NewFloodAlerts(
	c *api.Client,
	notify func(model.FloodAlert),
	log *slog.Logger,
) *Feed[model.FloodAlert] {
	opts := []Option[model.FloodAlert]{
		WithLogger[model.FloodAlert](log),
	}
	if notify != nil {
		opts = append(opts, WithNotify(notify))
	}
	return NewFeed(
		NewCollection(opts...),
		func(ctx context.Context) ([]model.FloodAlert, error) {
			return c.ListFloodAlerts(ctx)
		},
		api.DecodeFloodAlert,
		Events{
			Created: "newFloodReport",
			Updated: "floodReportUpdated",
			Deleted: "floodReportDeleted",
		},
		log,
	)
}

// NewIncidents builds the incidents feed.
func NewIncidents(
	c *api.Client,
	notify func(model.Incident),
	log *slog.Logger,
) *Feed[model.Incident] {
	opts := []Option[model.Incident]{
		WithLogger[model.Incident](log),
	}
	if notify != nil {
		opts = append(opts, WithNotify(notify))
	}
	return NewFeed(
		NewCollection(opts...),
		func(ctx context.Context) ([]model.Incident, error) {
			return c.ListIncidents(ctx)
		},
		api.DecodeIncident,
		Events{
			Created: "newIncident",
			Updated: "incidentUpdated",
			Deleted: "incidentDeleted",
		},
		log,
	)
}

// NewVisitorRequests builds the visitor requests feed.
func NewVisitorRequests(
	c *api.Client,
	notify func(model.VisitorRequest),
	log *slog.Logger,
) *Feed[model.VisitorRequest] {
	opts := []Option[model.VisitorRequest]{
		WithLogger[model.VisitorRequest](log),
	}
	if notify != nil {
		opts = append(opts, WithNotify(notify))
	}
	return NewFeed(
		NewCollection(opts...),
		func(ctx context.Context) ([]model.VisitorRequest, error) {
			return c.ListVisitorRequests(ctx)
		},
		api.DecodeVisitorRequest,
		Events{
			Created: "newVisitorRequest",
			Updated: "visitorRequestUpdated",
			Deleted: "visitorRequestDeleted",
		},
		log,
	)
}
