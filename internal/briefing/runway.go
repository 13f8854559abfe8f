package briefing

import (
	"math"
	"time"

	"github.com/yegors/preflight/internal/physics"
	"github.com/yegors/preflight/internal/storage/sqlite"
)

// runwayEnd is one usable landing direction
type runwayEnd struct {
	ident       string
	headingTrue float64
}

// runwayEnds lists every open runway end with a known heading. Ends without a
// surveyed true heading fall back to the ident's magnetic heading corrected
// by the declination at the airport.
func runwayEnds(airport *sqlite.AirportRecord, at time.Time) []runwayEnd {
	var ends []runwayEnd
	declination := math.NaN()

	heading := func(ident string, surveyed *float64) (float64, bool) {
		if surveyed != nil {
			return *surveyed, true
		}
		magnetic, ok := physics.HeadingFromIdent(ident)
		if !ok {
			return 0, false
		}
		if math.IsNaN(declination) {
			declination = physics.CalculateMagneticVariation(
				airport.Latitude, airport.Longitude, float64(airport.ElevationFt), at)
		}
		return physics.NormalizeHeading(magnetic + declination), true
	}

	for _, rwy := range airport.Runways {
		if rwy.Closed {
			continue
		}
		if hdg, ok := heading(rwy.LeIdent, rwy.LeHeadingTrue); ok {
			ends = append(ends, runwayEnd{ident: rwy.LeIdent, headingTrue: hdg})
		}
		if hdg, ok := heading(rwy.HeIdent, rwy.HeHeadingTrue); ok {
			ends = append(ends, runwayEnd{ident: rwy.HeIdent, headingTrue: hdg})
		}
	}
	return ends
}

// bestRunway picks the runway end with the least crosswind, preferring the
// stronger headwind on a tie. It returns nil when no end is usable.
func bestRunway(ends []runwayEnd, windDirDeg, windSpeedKts float64) *RunwayWind {
	var best *RunwayWind
	for _, end := range ends {
		head, cross := physics.WindComponents(windDirDeg, windSpeedKts, end.headingTrue)
		if best == nil || cross < best.CrosswindKts || (cross == best.CrosswindKts && head > best.HeadwindKts) {
			best = &RunwayWind{
				Ident:        end.ident,
				HeadingTrue:  math.Round(end.headingTrue*10) / 10,
				HeadwindKts:  head,
				CrosswindKts: cross,
			}
		}
	}
	return best
}
