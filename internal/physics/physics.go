package physics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// Constants
const (
	EarthRadiusNM = 3440.065 // Mean earth radius in nautical miles
	FeetToMeters  = 0.3048
	DegToRad      = math.Pi / 180
	RadToDeg      = 180 / math.Pi
)

// Vector2D represents a 2D vector
type Vector2D struct {
	X float64 // East component
	Y float64 // North component
}

// HeadingToVector converts a heading (degrees) and magnitude to X/Y components
func HeadingToVector(headingDeg float64, magnitude float64) Vector2D {
	rad := (90 - headingDeg) * DegToRad // Convert compass heading to math angle
	return Vector2D{
		X: magnitude * math.Cos(rad),
		Y: magnitude * math.Sin(rad),
	}
}

// WindComponents splits a wind (direction it blows FROM, true) into the
// headwind and crosswind relative to a runway heading (true).
// Headwind is negative for a tailwind; crosswind is always positive.
func WindComponents(windDirDeg, windSpeedKts, runwayHeadingDeg float64) (headwind, crosswind float64) {
	// With the runway rotated to north, the vector toward the wind source
	// has the headwind as its north component
	wind := HeadingToVector(windDirDeg-runwayHeadingDeg, windSpeedKts)
	return round1(wind.Y), round1(math.Abs(wind.X))
}

// CrosswindComponent returns |speed * sin(wind - runway)|
func CrosswindComponent(windDirDeg, windSpeedKts, runwayHeadingDeg float64) float64 {
	_, x := WindComponents(windDirDeg, windSpeedKts, runwayHeadingDeg)
	return x
}

// HeadingFromIdent converts a runway end designator ("04L", "36", "9R") to
// its nominal magnetic heading
func HeadingFromIdent(ident string) (float64, bool) {
	ident = strings.TrimRight(strings.ToUpper(strings.TrimSpace(ident)), "LRCGSWTU")
	n, err := strconv.Atoi(ident)
	if err != nil || n < 1 || n > 36 {
		return 0, false
	}
	return float64(n * 10), true
}

// NormalizeHeading wraps a heading into [0, 360)
func NormalizeHeading(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// DistanceNM returns the great-circle distance between two points
func DistanceNM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := lat1*DegToRad, lat2*DegToRad
	dPhi := (lat2 - lat1) * DegToRad
	dLambda := (lon2 - lon1) * DegToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusNM * c
}

// EstimatedTimeEnroute formats distance / speed as "HH:MM"
func EstimatedTimeEnroute(distanceNM, speedKts float64) string {
	if speedKts <= 0 || distanceNM < 0 {
		return "00:00"
	}
	minutes := int(math.Round(distanceNM / speedKts * 60))
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// CalculateMagneticVariation calculates the magnetic declination for a given position and time
// Returns declination in degrees (+East, -West)
func CalculateMagneticVariation(lat, lon, altFt float64, date time.Time) float64 {
	altM := altFt * FeetToMeters

	loc := egm96.NewLocationGeodetic(lat, lon, altM)

	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		// Return 0 for safety if calculation fails
		return 0.0
	}

	return mag.D()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
