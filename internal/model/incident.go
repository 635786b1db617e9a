package model

import "time"

// Incident lifecycle states. Transitions run pending -> responding ->
// resolved; the backend is authoritative and the client only renders
// whatever state it asserts.
const (
	IncidentPending    = "pending"
	IncidentResponding = "responding"
	IncidentResolved   = "resolved"
)

// Incident is a canonical incident report.
type Incident struct {
	// ID is the backend-assigned identifier.
	ID string `json:"id"`

	// ReporterName is the display name of the person who filed the report.
	ReporterName string `json:"reporter_name"`

	// ContactNumber is the reporter's contact number.
	ContactNumber string `json:"contact_number"`

	// Type is the incident classification (theft, fire, accident, ...),
	// used for category filtering in list views.
	Type string `json:"type"`

	// Location is the free-form place description.
	Location string `json:"location"`

	// Description is the reporter's account of the incident.
	Description string `json:"description"`

	// Date is the user-supplied incident date. Zero when absent.
	Date time.Time `json:"date"`

	// Status is one of the Incident* constants.
	Status string `json:"status"`

	// Latitude and Longitude locate the incident; zero values mean the
	// reporter denied geolocation and the backend default applies.
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`

	// Photos are uploaded photo references served under /api/uploads.
	Photos []string `json:"photos,omitempty"`

	// CreatedAt is when the backend stored the report.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the backend last modified the report.
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the deduplication key for the live feed.
func (i Incident) Key() string { return i.ID }

// Kind returns the incident classification used for category filtering.
func (i Incident) Kind() string { return i.Type }

// SearchFields returns the text matched by the feed's search filter. The
// original client searched "type - location", so both participate along
// with the description.
func (i Incident) SearchFields() []string {
	return []string{i.Type, i.Location, i.Description}
}

// OccurredAt returns the user-supplied incident date, zero when absent.
func (i Incident) OccurredAt() time.Time { return i.Date }

// PostedAt returns the backend creation time.
func (i Incident) PostedAt() time.Time { return i.CreatedAt }

// Open reports whether the incident still accepts a responder.
func (i Incident) Open() bool {
	return i.Status != IncidentResponding && i.Status != IncidentResolved
}
