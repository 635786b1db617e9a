package model

import "time"

// Visitor request lifecycle states. Transitions run pending -> approved or
// pending -> rejected.
const (
	VisitorPending  = "pending"
	VisitorApproved = "approved"
	VisitorRejected = "rejected"
)

// Arrival modes selectable when filing a visitor request.
var ArrivalModes = []string{"car", "motorcycle", "bicycle", "walk-in"}

// VisitorRequest is a canonical gate-pass request for an expected visitor.
// The backend uses fullName/dateOfVisit on write and a mix of name/datetime
// aliases on read; the api package normalizes both into this shape.
type VisitorRequest struct {
	// ID is the backend-assigned identifier.
	ID string `json:"id"`

	// FullName is the visitor's name.
	FullName string `json:"full_name"`

	// Resident is the display name of the requesting resident.
	Resident string `json:"resident,omitempty"`

	// Contact is the visitor's contact number.
	Contact string `json:"contact,omitempty"`

	// Address is the visitor's address.
	Address string `json:"address,omitempty"`

	// Purpose is the stated reason for the visit.
	Purpose string `json:"purpose"`

	// DateOfVisit is the scheduled visit time.
	DateOfVisit time.Time `json:"date_of_visit"`

	// ModeOfArrival is one of ArrivalModes.
	ModeOfArrival string `json:"mode_of_arrival"`

	// Status is one of the Visitor* constants.
	Status string `json:"status"`

	// Image is the uploaded visitor photo reference.
	Image string `json:"image,omitempty"`

	// QRData is the gate-pass payload issued once the request is approved.
	QRData string `json:"qr_data,omitempty"`

	// CreatedAt is when the request was filed.
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the deduplication key for the live feed.
func (v VisitorRequest) Key() string { return v.ID }

// Kind returns the request status, used for filtering by approval state.
func (v VisitorRequest) Kind() string { return v.Status }

// SearchFields returns the text matched by the feed's search filter.
func (v VisitorRequest) SearchFields() []string {
	return []string{v.FullName, v.Resident, v.Purpose}
}

// OccurredAt returns the scheduled visit time, zero when absent.
func (v VisitorRequest) OccurredAt() time.Time { return v.DateOfVisit }

// PostedAt returns the filing time.
func (v VisitorRequest) PostedAt() time.Time { return v.CreatedAt }

// PassValid reports whether an approved request's gate pass is still usable:
// the scheduled visit date must not be in the past.
func (v VisitorRequest) PassValid(now time.Time) bool {
	if v.Status != VisitorApproved || v.DateOfVisit.IsZero() {
		return false
	}
	y, m, d := v.DateOfVisit.Date()
	end := time.Date(y, m, d, 23, 59, 59, 0, v.DateOfVisit.Location())
	return !now.After(end)
}
