package model

import "time"

// Announcement categories recognized by the backend. CategoryUrgent is the
// distinguished tag that sorts before everything else in list views.
const (
	CategoryCommunity   = "Community Announcement"
	CategorySecurity    = "Security"
	CategoryMaintenance = "Maintenance"
	CategoryFlood       = "Flood"
	CategoryEvents      = "Events"
	CategoryUrgent      = "Urgent"
	CategoryOther       = "Other"
)

// AnnouncementCategories lists every selectable announcement category, in
// the order they are presented in forms and filters.
var AnnouncementCategories = []string{
	CategoryCommunity,
	CategorySecurity,
	CategoryMaintenance,
	CategoryFlood,
	CategoryEvents,
	CategoryUrgent,
	CategoryOther,
}

// Announcement is the canonical shape of a community announcement. Backend
// payload variants are normalized into this struct at the api boundary.
type Announcement struct {
	// ID is the backend-assigned identifier, stable across fetches and
	// push events. It is the sole deduplication key.
	ID string `json:"id"`

	// Title is the headline shown in list views.
	Title string `json:"title"`

	// Description is the full announcement body.
	Description string `json:"description"`

	// Category is one of the Category* constants.
	Category string `json:"category"`

	// Location is a free-form place description, optional.
	Location string `json:"location"`

	// Contact is an optional contact number for follow-ups.
	Contact string `json:"contact"`

	// Date is the user-supplied event date. Zero when the poster gave none;
	// sorting then falls back to CreatedAt.
	Date time.Time `json:"date"`

	// Time is the user-supplied event time as entered ("15:04"), kept as a
	// display string because the backend stores it separately from Date.
	Time string `json:"time"`

	// Image is the uploaded image reference served under /api/uploads.
	Image string `json:"image,omitempty"`

	// CreatedAt is when the backend created the record.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the backend last modified the record.
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the deduplication key for the live feed.
func (a Announcement) Key() string { return a.ID }

// Kind returns the category tag used for filtering and urgent-first ordering.
func (a Announcement) Kind() string { return a.Category }

// SearchFields returns the text matched by the feed's search filter.
func (a Announcement) SearchFields() []string { return []string{a.Title, a.Description} }

// OccurredAt returns the user-supplied event date, zero when absent.
func (a Announcement) OccurredAt() time.Time { return a.Date }

// PostedAt returns the backend creation time.
func (a Announcement) PostedAt() time.Time { return a.CreatedAt }
