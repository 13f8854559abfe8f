package physics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindComponents(t *testing.T) {
	tests := []struct {
		name            string
		windDir, speed  float64
		runway          float64
		headwind, xwind float64
	}{
		{"straight down the runway", 360, 20, 360, 20, 0},
		{"direct crosswind", 270, 20, 360, 0, 20},
		{"thirty degrees off", 300, 20, 270, 17.3, 10},
		{"tailwind", 180, 10, 360, -10, 0},
		{"wraps past north", 10, 20, 340, 17.3, 10},
		{"calm", 0, 0, 280, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			head, cross := WindComponents(tt.windDir, tt.speed, tt.runway)
			assert.InDelta(t, tt.headwind, head, 0.05)
			assert.InDelta(t, tt.xwind, cross, 0.05)
			assert.InDelta(t, tt.xwind, CrosswindComponent(tt.windDir, tt.speed, tt.runway), 0.05)
		})
	}
}

func TestHeadingFromIdent(t *testing.T) {
	tests := map[string]float64{"04L": 40, "36": 360, "9R": 90, "28C": 280, "01": 10}
	for ident, want := range tests {
		got, ok := HeadingFromIdent(ident)
		assert.True(t, ok, ident)
		assert.Equal(t, want, got, ident)
	}

	for _, ident := range []string{"", "H1", "00", "37", "N", "XX"} {
		_, ok := HeadingFromIdent(ident)
		assert.False(t, ok, ident)
	}
}

func TestNormalizeHeading(t *testing.T) {
	assert.Equal(t, 350.0, NormalizeHeading(-10))
	assert.Equal(t, 0.0, NormalizeHeading(360))
	assert.Equal(t, 15.0, NormalizeHeading(735))
}

func TestDistanceNM(t *testing.T) {
	// KSFO to KLAX
	d := DistanceNM(37.6188, -122.3750, 33.9425, -118.4081)
	assert.InDelta(t, 293, d, 3)

	assert.Equal(t, 0.0, DistanceNM(10, 10, 10, 10))
}

func TestEstimatedTimeEnroute(t *testing.T) {
	assert.Equal(t, "02:30", EstimatedTimeEnroute(300, 120))
	assert.Equal(t, "00:45", EstimatedTimeEnroute(90, 120))
	assert.Equal(t, "00:00", EstimatedTimeEnroute(0, 120))
	assert.Equal(t, "00:00", EstimatedTimeEnroute(100, 0))
	assert.Equal(t, "12:00", EstimatedTimeEnroute(1440, 120))
}

func TestCalculateMagneticVariation(t *testing.T) {
	// San Francisco has roughly 13 degrees east variation
	d := CalculateMagneticVariation(37.6188, -122.3750, 13, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, math.IsNaN(d))
	assert.InDelta(t, 13, d, 2)
}

func TestSolarElevation(t *testing.T) {
	june := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)

	// Local solar noon at 0 longitude on the solstice: 90 - (lat - 23.44)
	noon := SolarElevation(45, 0, june.Add(12*time.Hour))
	assert.InDelta(t, 68.4, noon, 0.5)

	midnight := SolarElevation(45, 0, june)
	assert.Less(t, midnight, 0.0)
}

func TestIsDaytime(t *testing.T) {
	// 13:00 and 03:00 PDT at KSFO
	assert.True(t, IsDaytime(37.6188, -122.3750, time.Date(2024, 6, 21, 20, 0, 0, 0, time.UTC)))
	assert.False(t, IsDaytime(37.6188, -122.3750, time.Date(2024, 6, 21, 10, 0, 0, 0, time.UTC)))
}
