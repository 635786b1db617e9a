package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/communisafe/communisafe/internal/model"
)

// announcementPayload mirrors the backend's announcement document. The
// backend stores the user-supplied date and time separately and sometimes
// reports the creation instant under "timestamp" instead of "createdAt".
type announcementPayload struct {
	ID          string   `json:"_id"`
	AltID       string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	Contact     string   `json:"contact"`
	Date        wireTime `json:"date"`
	Time        string   `json:"time"`
	Image       string   `json:"image"`
	CreatedAt   wireTime `json:"createdAt"`
	Timestamp   wireTime `json:"timestamp"`
	UpdatedAt   wireTime `json:"updatedAt"`
}

// toModel normalizes the wire payload into the canonical shape.
func (p announcementPayload) toModel() model.Announcement {
	return model.Announcement{
		ID:          firstNonEmpty(p.ID, p.AltID),
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Location:    p.Location,
		Contact:     p.Contact,
		Date:        p.Date.Time,
		Time:        p.Time,
		Image:       p.Image,
		CreatedAt:   firstTime(p.CreatedAt, p.Timestamp),
		UpdatedAt:   p.UpdatedAt.Time,
	}
}

// DecodeAnnouncement normalizes a single raw announcement payload, as
// delivered by push events.
func DecodeAnnouncement(raw json.RawMessage) (model.Announcement, error) {
	var p announcementPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Announcement{}, fmt.Errorf("decoding announcement: %w", err)
	}
	return p.toModel(), nil
}

// AnnouncementDraft carries the fields of a new or edited announcement.
type AnnouncementDraft struct {
	Title       string
	Description string
	Category    string
	Location    string
	Date        string // "2006-01-02", empty for none
	Time        string // "15:04", empty for none
	Contact     string
	Image       *FormFile
}

// fields returns the multipart text fields for the draft.
func (d AnnouncementDraft) fields() map[string]string {
	category := d.Category
	if category == "" {
		category = model.CategoryCommunity
	}
	return map[string]string{
		"title":       d.Title,
		"description": d.Description,
		"category":    category,
		"location":    d.Location,
		"date":        d.Date,
		"time":        d.Time,
		"contact":     d.Contact,
	}
}

// ListAnnouncements bulk-fetches every announcement.
func (c *Client) ListAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	body, err := c.GetRaw(ctx, "/api/announcements")
	if err != nil {
		return nil, fmt.Errorf("fetching announcements: %w", err)
	}

	raws, err := decodeList(body, "data", "announcements")
	if err != nil {
		return nil, fmt.Errorf("fetching announcements: %w", err)
	}

	announcements := make([]model.Announcement, 0, len(raws))
	for _, raw := range raws {
		a, err := DecodeAnnouncement(raw)
		if err != nil {
			return nil, err
		}
		announcements = append(announcements, a)
	}
	return announcements, nil
}

// CreateAnnouncement posts a new announcement with an optional image and
// returns the created record.
func (c *Client) CreateAnnouncement(
	ctx context.Context,
	draft AnnouncementDraft,
) (model.Announcement, error) {
	var files []FormFile
	if draft.Image != nil {
		files = append(files, *draft.Image)
	}

	body, err := c.PostForm(ctx, "/api/announcements", draft.fields(), files)
	if err != nil {
		return model.Announcement{}, fmt.Errorf("creating announcement: %w", err)
	}
	return DecodeAnnouncement(unwrap(body, "data", "announcement"))
}

// UpdateAnnouncement edits an existing announcement and returns the
// updated record.
func (c *Client) UpdateAnnouncement(
	ctx context.Context,
	id string,
	draft AnnouncementDraft,
) (model.Announcement, error) {
	var files []FormFile
	if draft.Image != nil {
		files = append(files, *draft.Image)
	}

	path := "/api/announcements/" + id
	body, err := c.PutForm(ctx, path, draft.fields(), files)
	if err != nil {
		return model.Announcement{}, fmt.Errorf("updating announcement %s: %w", id, err)
	}
	return DecodeAnnouncement(unwrap(body, "data", "announcement"))
}

// DeleteAnnouncement removes an announcement.
func (c *Client) DeleteAnnouncement(ctx context.Context, id string) error {
	if err := c.Delete(ctx, "/api/announcements/"+id); err != nil {
		return fmt.Errorf("deleting announcement %s: %w", id, err)
	}
	return nil
}
