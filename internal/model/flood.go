package model

import "time"

// Flood severity levels derived from sensor water-level readings.
const (
	SeverityHigh   = "High"
	SeverityMedium = "Medium"
	SeverityLow    = "Low"
	SeverityNone   = "None"
)

// Water-level thresholds in feet for the severity bands.
const (
	highWaterFt   = 2.9
	mediumWaterFt = 2.0
	lowWaterFt    = 1.0

	cmPerFoot = 30.48
)

// FloodAlert is a flood report plotted on the community map.
type FloodAlert struct {
	// ID is the backend-assigned identifier.
	ID string `json:"id"`

	// Location is the reverse-geocoded place name of the report.
	Location string `json:"location"`

	// Severity is one of the Severity* constants, computed from the sensor
	// water level at reporting time.
	Severity string `json:"severity"`

	// Description is the reporter's account of the situation.
	Description string `json:"description"`

	// Contact is the reporter's contact number.
	Contact string `json:"contact,omitempty"`

	// Lat and Lng locate the report on the map.
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`

	// Timestamp is the reported event time.
	Timestamp time.Time `json:"timestamp"`

	// CreatedAt is when the backend stored the report.
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the deduplication key for the live feed.
func (f FloodAlert) Key() string { return f.ID }

// Kind returns the severity band, used for filtering alerts by severity.
func (f FloodAlert) Kind() string { return f.Severity }

// SearchFields returns the text matched by the feed's search filter.
func (f FloodAlert) SearchFields() []string { return []string{f.Location, f.Description} }

// OccurredAt returns the reported event time.
func (f FloodAlert) OccurredAt() time.Time { return f.Timestamp }

// PostedAt returns the backend creation time.
func (f FloodAlert) PostedAt() time.Time { return f.CreatedAt }

// SensorReading is the latest state of a water-level sensor.
type SensorReading struct {
	// ID is the backend-assigned identifier.
	ID string `json:"id"`

	// Name is the sensor's label.
	Name string `json:"name"`

	// Address is the sensor's installed location.
	Address string `json:"address"`

	// WaterLevelCm is the measured water level in centimeters.
	WaterLevelCm float64 `json:"water_level_cm"`

	// BatteryLevel is the remaining battery percentage.
	BatteryLevel int `json:"battery_level"`

	// SignalStrength is the backend-reported signal descriptor.
	SignalStrength string `json:"signal_strength"`

	// Status is the backend-reported operational status.
	Status string `json:"status"`

	// LastUpdated is when the sensor last reported.
	LastUpdated time.Time `json:"last_updated"`

	// Lat and Lng locate the sensor on the map.
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// WaterLevelFt returns the measured water level converted to feet.
func (s SensorReading) WaterLevelFt() float64 {
	return s.WaterLevelCm / cmPerFoot
}

// FloodLevel returns the severity band for the current water level.
func (s SensorReading) FloodLevel() string {
	return SeverityForWaterLevel(s.WaterLevelCm)
}

// SeverityForWaterLevel maps a water level in centimeters to a severity
// band: at least 2.9 ft is High, 2 ft Medium, 1 ft Low, anything below None.
func SeverityForWaterLevel(cm float64) string {
	ft := cm / cmPerFoot
	switch {
	case ft >= highWaterFt:
		return SeverityHigh
	case ft >= mediumWaterFt:
		return SeverityMedium
	case ft >= lowWaterFt:
		return SeverityLow
	default:
		return SeverityNone
	}
}
