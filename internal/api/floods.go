package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/communisafe/communisafe/internal/model"
)

// wireCoord decodes coordinates the backend sends either as numbers or as
// formatted strings.
type wireCoord float64

func (c *wireCoord) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*c = 0
		return nil
	}
	*c = wireCoord(f)
	return nil
}

// floodReportPayload mirrors the backend's flood report document.
type floodReportPayload struct {
	ID          string    `json:"_id"`
	AltID       string    `json:"id"`
	Location    string    `json:"location"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	Contact     string    `json:"contact"`
	Lat         wireCoord `json:"lat"`
	Lng         wireCoord `json:"lng"`
	Timestamp   wireTime  `json:"timestamp"`
	CreatedAt   wireTime  `json:"createdAt"`
}

func (p floodReportPayload) toModel() model.FloodAlert {
	return model.FloodAlert{
		ID:          firstNonEmpty(p.ID, p.AltID),
		Location:    p.Location,
		Severity:    normalizeSeverity(p.Severity),
		Description: p.Description,
		Contact:     p.Contact,
		Lat:         float64(p.Lat),
		Lng:         float64(p.Lng),
		Timestamp:   p.Timestamp.Time,
		CreatedAt:   firstTime(p.CreatedAt, p.Timestamp),
	}
}

// normalizeSeverity folds the backend's mixed-case severities ("HIGH",
// "High") onto the model constants.
func normalizeSeverity(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return model.SeverityHigh
	case "medium":
		return model.SeverityMedium
	case "low":
		return model.SeverityLow
	default:
		return model.SeverityNone
	}
}

// DecodeFloodAlert normalizes a single raw flood report payload.
func DecodeFloodAlert(raw json.RawMessage) (model.FloodAlert, error) {
	var p floodReportPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.FloodAlert{}, fmt.Errorf("decoding flood report: %w", err)
	}
	return p.toModel(), nil
}

// sensorPayload mirrors the backend's sensor document.
type sensorPayload struct {
	ID             string   `json:"_id"`
	AltID          string   `json:"id"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	WaterLevel     float64  `json:"waterLevel"`
	BatteryLevel   int      `json:"batteryLevel"`
	SignalStrength string   `json:"signalStrength"`
	Status         string   `json:"status"`
	LastUpdated    wireTime `json:"lastUpdated"`
	Coordinates    struct {
		Lat wireCoord `json:"lat"`
		Lng wireCoord `json:"lng"`
	} `json:"coordinates"`
}

func (p sensorPayload) toModel() model.SensorReading {
	return model.SensorReading{
		ID:             firstNonEmpty(p.ID, p.AltID),
		Name:           p.Name,
		Address:        p.Address,
		WaterLevelCm:   p.WaterLevel,
		BatteryLevel:   p.BatteryLevel,
		SignalStrength: p.SignalStrength,
		Status:         p.Status,
		LastUpdated:    p.LastUpdated.Time,
		Lat:            float64(p.Coordinates.Lat),
		Lng:            float64(p.Coordinates.Lng),
	}
}

// ListFloodAlerts bulk-fetches every flood report.
func (c *Client) ListFloodAlerts(ctx context.Context) ([]model.FloodAlert, error) {
	body, err := c.GetRaw(ctx, "/api/flood/reports")
	if err != nil {
		return nil, fmt.Errorf("fetching flood reports: %w", err)
	}

	raws, err := decodeList(body, "data", "reports")
	if err != nil {
		return nil, fmt.Errorf("fetching flood reports: %w", err)
	}

	alerts := make([]model.FloodAlert, 0, len(raws))
	for _, raw := range raws {
		a, err := DecodeFloodAlert(raw)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

// ListSensors fetches the current state of every water-level sensor.
func (c *Client) ListSensors(ctx context.Context) ([]model.SensorReading, error) {
	body, err := c.GetRaw(ctx, "/api/flood/sensors")
	if err != nil {
		return nil, fmt.Errorf("fetching sensors: %w", err)
	}

	raws, err := decodeList(body, "data", "sensors")
	if err != nil {
		return nil, fmt.Errorf("fetching sensors: %w", err)
	}

	sensors := make([]model.SensorReading, 0, len(raws))
	for _, raw := range raws {
		var p sensorPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decoding sensor: %w", err)
		}
		sensors = append(sensors, p.toModel())
	}
	return sensors, nil
}

// LatestWaterLevel fetches the most recent reading of the primary sensor.
func (c *Client) LatestWaterLevel(ctx context.Context) (model.SensorReading, error) {
	body, err := c.GetRaw(ctx, "/api/flood/latest")
	if err != nil {
		return model.SensorReading{}, fmt.Errorf("fetching latest water level: %w", err)
	}

	var p sensorPayload
	if err := json.Unmarshal(unwrap(body, "data", "sensor"), &p); err != nil {
		return model.SensorReading{}, fmt.Errorf("decoding latest water level: %w", err)
	}
	return p.toModel(), nil
}

// FloodReportDraft carries the fields of a new flood report. Severity is
// computed client-side from the sensor water level; Location comes from
// reverse geocoding the map position.
type FloodReportDraft struct {
	Location    string  `json:"location"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	Contact     string  `json:"contact"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Timestamp   string  `json:"timestamp"`
}

// CreateFloodReport files a flood report and returns the stored record.
func (c *Client) CreateFloodReport(
	ctx context.Context,
	draft FloodReportDraft,
) (model.FloodAlert, error) {
	var raw json.RawMessage
	if err := c.Post(ctx, "/api/flood/reports", draft, &raw); err != nil {
		return model.FloodAlert{}, fmt.Errorf("creating flood report: %w", err)
	}
	if len(raw) == 0 {
		return model.FloodAlert{}, nil
	}
	return DecodeFloodAlert(unwrap(raw, "data", "report"))
}
