package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/communisafe/communisafe/internal/model"
)

// notificationPayload mirrors the backend's notification document.
type notificationPayload struct {
	ID        string   `json:"_id"`
	AltID     string   `json:"id"`
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Message   string   `json:"message"` // older documents carry body text here
	TargetID  string   `json:"targetId"`
	Read      bool     `json:"read"`
	CreatedAt wireTime `json:"createdAt"`
}

func (p notificationPayload) toModel() model.Notification {
	return model.Notification{
		ID:        firstNonEmpty(p.ID, p.AltID),
		Type:      model.NotificationType(p.Type),
		Title:     p.Title,
		Body:      firstNonEmpty(p.Body, p.Message),
		TargetID:  p.TargetID,
		Read:      p.Read,
		CreatedAt: p.CreatedAt.Time,
	}
}

// DecodeNotification normalizes a single raw notification payload.
func DecodeNotification(raw json.RawMessage) (model.Notification, error) {
	var p notificationPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Notification{}, fmt.Errorf("decoding notification: %w", err)
	}
	return p.toModel(), nil
}

// ListNotifications bulk-fetches the user's notifications.
func (c *Client) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	body, err := c.GetRaw(ctx, "/api/notifications")
	if err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}

	raws, err := decodeList(body, "notifications", "data")
	if err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}

	notifications := make([]model.Notification, 0, len(raws))
	for _, raw := range raws {
		n, err := DecodeNotification(raw)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/notifications/%s/read", id)
	if err := c.Post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	if err := c.Delete(ctx, "/api/notifications/"+id); err != nil {
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}
	return nil
}

// ClearNotifications removes every notification for the user.
func (c *Client) ClearNotifications(ctx context.Context) error {
	if err := c.Delete(ctx, "/api/notifications/clear-all"); err != nil {
		return fmt.Errorf("clearing notifications: %w", err)
	}
	return nil
}
