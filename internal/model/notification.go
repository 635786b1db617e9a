package model

import "time"

// NotificationType identifies which domain a notification points into.
type NotificationType string

const (
	NotificationAnnouncement NotificationType = "announcement"
	NotificationVisitor      NotificationType = "visitor"
	NotificationFlood        NotificationType = "flood"
	NotificationIncident     NotificationType = "incident"
	NotificationSecurity     NotificationType = "security"
)

// Notification is a server-generated message pointing at a record in one of
// the other domains.
type Notification struct {
	// ID is the backend-assigned identifier.
	ID string `json:"id"`

	// Type selects the domain the notification deep-links into.
	Type NotificationType `json:"type"`

	// Title is the short headline.
	Title string `json:"title"`

	// Body is the detail text.
	Body string `json:"body"`

	// TargetID is the id of the record this notification refers to,
	// empty for domains routed without an id (e.g. flood tracker).
	TargetID string `json:"target_id,omitempty"`

	// Read reports whether the user has opened the notification.
	Read bool `json:"read"`

	// CreatedAt is when the backend emitted the notification.
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the deduplication key for the live feed.
func (n Notification) Key() string { return n.ID }

// Kind returns the notification type used for category filtering.
func (n Notification) Kind() string { return string(n.Type) }

// SearchFields returns the text matched by the feed's search filter.
func (n Notification) SearchFields() []string { return []string{n.Title, n.Body} }

// OccurredAt is always zero for notifications; ordering uses PostedAt.
func (n Notification) OccurredAt() time.Time { return time.Time{} }

// PostedAt returns the backend creation time.
func (n Notification) PostedAt() time.Time { return n.CreatedAt }
