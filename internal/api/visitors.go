package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/communisafe/communisafe/internal/model"
)

// visitorPayload mirrors the backend's visitor request document. Different
// backend routes spell the same fields differently ("name" vs "fullName",
// "datetime" vs "dateOfVisit"), so both aliases are decoded and folded
// into one canonical shape here, never downstream.
type visitorPayload struct {
	ID            string   `json:"_id"`
	AltID         string   `json:"id"`
	FullName      string   `json:"fullName"`
	Name          string   `json:"name"`
	Resident      string   `json:"resident"`
	Contact       string   `json:"contact"`
	Address       string   `json:"address"`
	Purpose       string   `json:"purpose"`
	DateOfVisit   wireTime `json:"dateOfVisit"`
	Datetime      wireTime `json:"datetime"`
	ModeOfArrival string   `json:"modeOfArrival"`
	Status        string   `json:"status"`
	Image         string   `json:"visitorImage"`
	QRData        string   `json:"qrData"`
	CreatedAt     wireTime `json:"createdAt"`
}

func (p visitorPayload) toModel() model.VisitorRequest {
	return model.VisitorRequest{
		ID:            firstNonEmpty(p.ID, p.AltID),
		FullName:      firstNonEmpty(p.FullName, p.Name),
		Resident:      p.Resident,
		Contact:       p.Contact,
		Address:       p.Address,
		Purpose:       p.Purpose,
		DateOfVisit:   firstTime(p.DateOfVisit, p.Datetime),
		ModeOfArrival: p.ModeOfArrival,
		Status:        normalizeVisitorStatus(p.Status),
		Image:         p.Image,
		QRData:        p.QRData,
		CreatedAt:     p.CreatedAt.Time,
	}
}

// normalizeVisitorStatus folds the backend's mixed spellings ("Pending",
// "Accepted", "approved") onto the model constants.
func normalizeVisitorStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approved", "accepted":
		return model.VisitorApproved
	case "rejected", "declined":
		return model.VisitorRejected
	default:
		return model.VisitorPending
	}
}

// DecodeVisitorRequest normalizes a single raw visitor request payload.
func DecodeVisitorRequest(raw json.RawMessage) (model.VisitorRequest, error) {
	var p visitorPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.VisitorRequest{}, fmt.Errorf("decoding visitor request: %w", err)
	}
	return p.toModel(), nil
}

// ListVisitorRequests bulk-fetches visitor requests. Residents receive
// their own requests; security, officials, and admins the whole queue.
func (c *Client) ListVisitorRequests(ctx context.Context) ([]model.VisitorRequest, error) {
	body, err := c.GetRaw(ctx, "/api/visitors/visitor-requests")
	if err != nil {
		return nil, fmt.Errorf("fetching visitor requests: %w", err)
	}

	raws, err := decodeList(body, "data", "requests")
	if err != nil {
		return nil, fmt.Errorf("fetching visitor requests: %w", err)
	}

	requests := make([]model.VisitorRequest, 0, len(raws))
	for _, raw := range raws {
		v, err := DecodeVisitorRequest(raw)
		if err != nil {
			return nil, err
		}
		requests = append(requests, v)
	}
	return requests, nil
}

// VisitorDraft carries the fields of a new visitor request.
type VisitorDraft struct {
	FullName      string
	Contact       string
	Address       string
	Purpose       string
	DateOfVisit   string // "2006-01-02T15:04"
	ModeOfArrival string
	Image         *FormFile
}

// CreateVisitorRequest files a visitor request and returns the stored
// record.
func (c *Client) CreateVisitorRequest(
	ctx context.Context,
	draft VisitorDraft,
) (model.VisitorRequest, error) {
	fields := map[string]string{
		"fullName":      draft.FullName,
		"contact":       draft.Contact,
		"address":       draft.Address,
		"purpose":       draft.Purpose,
		"dateOfVisit":   draft.DateOfVisit,
		"modeOfArrival": draft.ModeOfArrival,
	}

	var files []FormFile
	if draft.Image != nil {
		img := *draft.Image
		img.Field = "visitorImage"
		files = append(files, img)
	}

	body, err := c.PostForm(ctx, "/api/visitors/visitor-requests", fields, files)
	if err != nil {
		return model.VisitorRequest{}, fmt.Errorf("creating visitor request: %w", err)
	}
	return DecodeVisitorRequest(unwrap(body, "data", "request"))
}

// SetVisitorStatus asserts a new lifecycle state for a visitor request and
// returns the authoritative status echoed by the backend.
func (c *Client) SetVisitorStatus(
	ctx context.Context,
	id string,
	status string,
) (string, error) {
	path := fmt.Sprintf("/api/visitors/visitor-requests/%s/status", id)
	payload := map[string]string{"status": status}

	var result struct {
		Status string `json:"status"`
	}
	if err := c.Put(ctx, path, payload, &result); err != nil {
		return "", fmt.Errorf("updating visitor request %s status: %w", id, err)
	}
	if result.Status == "" {
		return status, nil
	}
	return normalizeVisitorStatus(result.Status), nil
}

// ApproveVisitorRequest approves a pending request.
func (c *Client) ApproveVisitorRequest(ctx context.Context, id string) (string, error) {
	return c.SetVisitorStatus(ctx, id, model.VisitorApproved)
}

// RejectVisitorRequest rejects a pending request.
func (c *Client) RejectVisitorRequest(ctx context.Context, id string) (string, error) {
	return c.SetVisitorStatus(ctx, id, model.VisitorRejected)
}
