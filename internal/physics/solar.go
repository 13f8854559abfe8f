package physics

import (
	"math"
	"time"
)

// SunriseElevationDeg is the solar elevation at sunrise and sunset, allowing
// for refraction and the solar disc radius
const SunriseElevationDeg = -0.833

// SolarElevation returns the sun's elevation above the horizon in degrees
// using the low precision almanac formulas (accurate to about 0.1 degree)
func SolarElevation(lat, lon float64, t time.Time) float64 {
	// Days since J2000.0
	n := float64(t.UTC().UnixNano())/float64(24*time.Hour) + 2440587.5 - 2451545.0

	meanLon := NormalizeHeading(280.460 + 0.9856474*n)
	meanAnomaly := NormalizeHeading(357.528+0.9856003*n) * DegToRad
	eclipticLon := (meanLon + 1.915*math.Sin(meanAnomaly) + 0.020*math.Sin(2*meanAnomaly)) * DegToRad
	obliquity := (23.439 - 0.0000004*n) * DegToRad

	rightAscension := math.Atan2(math.Cos(obliquity)*math.Sin(eclipticLon), math.Cos(eclipticLon))
	declination := math.Asin(math.Sin(obliquity) * math.Sin(eclipticLon))

	gmstHours := math.Mod(18.697374558+24.06570982441908*n, 24)
	localSiderealDeg := gmstHours*15 + lon
	hourAngle := localSiderealDeg*DegToRad - rightAscension

	latRad := lat * DegToRad
	sinElevation := math.Sin(latRad)*math.Sin(declination) +
		math.Cos(latRad)*math.Cos(declination)*math.Cos(hourAngle)

	return math.Asin(sinElevation) * RadToDeg
}

// IsDaytime reports whether the sun is above the horizon at the position
func IsDaytime(lat, lon float64, t time.Time) bool {
	return SolarElevation(lat, lon, t) > SunriseElevationDeg
}
