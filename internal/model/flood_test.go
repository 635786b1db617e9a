package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityForWaterLevel(t *testing.T) {
	cases := []struct {
		name string
		cm   float64
		want string
	}{
		{"dry", 0, SeverityNone},
		{"just below one foot", 30.0, SeverityNone},
		{"one foot", 30.5, SeverityLow},
		{"foot and a half", 45.7, SeverityLow},
		{"two feet", 61.0, SeverityMedium},
		{"two and a half feet", 76.2, SeverityMedium},
		{"just below high band", 88.0, SeverityMedium},
		{"high band", 88.4, SeverityHigh},
		{"well above high band", 152.4, SeverityHigh},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SeverityForWaterLevel(tc.cm))
		})
	}
}

func TestSensorReadingDerivedValues(t *testing.T) {
	s := SensorReading{WaterLevelCm: 60.96}

	assert.InDelta(t, 2.0, s.WaterLevelFt(), 1e-9)
	assert.Equal(t, SeverityMedium, s.FloodLevel())
}
