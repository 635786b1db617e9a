package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/communisafe/communisafe/internal/model"
)

// incidentPayload mirrors the backend's incident document. Status arrives
// in mixed case ("Pending", "responding", "Solved") and is normalized on
// the way in.
type incidentPayload struct {
	ID            string    `json:"_id"`
	AltID         string    `json:"id"`
	Name          string    `json:"name"`
	ContactNumber string    `json:"contactNumber"`
	Type          string    `json:"type"`
	Location      string    `json:"location"`
	Description   string    `json:"description"`
	Date          wireTime  `json:"date"`
	Status        string    `json:"status"`
	Latitude      wireCoord `json:"latitude"`
	Longitude     wireCoord `json:"longitude"`
	Photos        []string  `json:"photos"`
	CreatedAt     wireTime  `json:"createdAt"`
	UpdatedAt     wireTime  `json:"updatedAt"`
}

func (p incidentPayload) toModel() model.Incident {
	return model.Incident{
		ID:            firstNonEmpty(p.ID, p.AltID),
		ReporterName:  p.Name,
		ContactNumber: p.ContactNumber,
		Type:          p.Type,
		Location:      p.Location,
		Description:   p.Description,
		Date:          p.Date.Time,
		Status:        normalizeIncidentStatus(p.Status),
		Latitude:      float64(p.Latitude),
		Longitude:     float64(p.Longitude),
		Photos:        p.Photos,
		CreatedAt:     p.CreatedAt.Time,
		UpdatedAt:     p.UpdatedAt.Time,
	}
}

// normalizeIncidentStatus folds the backend's mixed spellings ("Pending",
// "Solved") onto the model constants.
func normalizeIncidentStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "responding":
		return model.IncidentResponding
	case "resolved", "solved":
		return model.IncidentResolved
	default:
		return model.IncidentPending
	}
}

// DecodeIncident normalizes a single raw incident payload.
func DecodeIncident(raw json.RawMessage) (model.Incident, error) {
	var p incidentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Incident{}, fmt.Errorf("decoding incident: %w", err)
	}
	return p.toModel(), nil
}

// ListIncidents bulk-fetches every incident report.
func (c *Client) ListIncidents(ctx context.Context) ([]model.Incident, error) {
	body, err := c.GetRaw(ctx, "/api/incidents")
	if err != nil {
		return nil, fmt.Errorf("fetching incidents: %w", err)
	}

	raws, err := decodeList(body, "incidents", "data")
	if err != nil {
		return nil, fmt.Errorf("fetching incidents: %w", err)
	}

	incidents := make([]model.Incident, 0, len(raws))
	for _, raw := range raws {
		inc, err := DecodeIncident(raw)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, inc)
	}
	return incidents, nil
}

// GetIncident fetches one incident by id.
func (c *Client) GetIncident(ctx context.Context, id string) (model.Incident, error) {
	body, err := c.GetRaw(ctx, "/api/incidents/"+id)
	if err != nil {
		return model.Incident{}, fmt.Errorf("fetching incident %s: %w", id, err)
	}
	return DecodeIncident(unwrap(body, "incident", "data"))
}

// IncidentDraft carries the fields of a new incident report. At least one
// photo is required by the backend.
type IncidentDraft struct {
	Name          string
	ContactNumber string
	Date          string // "2006-01-02"
	Type          string
	Location      string
	Description   string
	Latitude      float64
	Longitude     float64
	Photos        []FormFile
}

// CreateIncident files an incident report and returns the stored record.
func (c *Client) CreateIncident(
	ctx context.Context,
	draft IncidentDraft,
) (model.Incident, error) {
	fields := map[string]string{
		"name":          draft.Name,
		"contactNumber": draft.ContactNumber,
		"date":          draft.Date,
		"type":          draft.Type,
		"location":      draft.Location,
		"description":   draft.Description,
	}
	if draft.Latitude != 0 || draft.Longitude != 0 {
		fields["latitude"] = fmt.Sprintf("%f", draft.Latitude)
		fields["longitude"] = fmt.Sprintf("%f", draft.Longitude)
	}

	files := make([]FormFile, 0, len(draft.Photos))
	for _, photo := range draft.Photos {
		photo.Field = "photos"
		files = append(files, photo)
	}

	body, err := c.PostForm(ctx, "/api/incidents", fields, files)
	if err != nil {
		return model.Incident{}, fmt.Errorf("creating incident: %w", err)
	}
	return DecodeIncident(unwrap(body, "incident", "data"))
}

// SetIncidentStatus asserts a new lifecycle state for an incident.
func (c *Client) SetIncidentStatus(ctx context.Context, id, status string) error {
	path := "/api/incidents/" + id
	payload := map[string]string{"status": status}
	if err := c.Put(ctx, path, payload, nil); err != nil {
		return fmt.Errorf("updating incident %s status: %w", id, err)
	}
	return nil
}

// RespondToIncident claims an incident for the calling responder. The
// backend rejects the call when the incident is already being responded to
// or resolved; the caller surfaces that as a stale-action error.
func (c *Client) RespondToIncident(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/incidents/%s/respond", id)
	payload := map[string]string{"status": model.IncidentResponding}
	if err := c.Put(ctx, path, payload, nil); err != nil {
		return fmt.Errorf("responding to incident %s: %w", id, err)
	}
	return nil
}
