package minima

import (
	"github.com/yegors/preflight/internal/preferences"
	"github.com/yegors/preflight/internal/weather"
)

// Dimension is one of the quantities compared against personal minima
type Dimension string

const (
	Visibility Dimension = "visibility"
	Ceiling    Dimension = "ceiling"
	WindSpeed  Dimension = "wind"
	Crosswind  Dimension = "crosswind"
)

// Dimensions lists every dimension in evaluation order
var Dimensions = []Dimension{Visibility, Ceiling, WindSpeed, Crosswind}

// Violation records an observed value beyond a personal limit
type Violation struct {
	Dimension Dimension `json:"dimension"`
	Observed  float64   `json:"observed"`
	Limit     float64   `json:"limit"`
	GustKts   *float64  `json:"gust_kts,omitempty"`
}

// Evaluate checks parsed weather against the day or night minima
func Evaluate(parsed weather.ParsedWeather, prefs preferences.PilotPreferences, daytime bool) []Violation {
	return Check(parsed, prefs.MinimaFor(daytime))
}

// Check compares each known dimension against the minima. Visibility and
// ceiling violate when below the limit, wind and crosswind when above it.
// Unknown values are skipped.
func Check(parsed weather.ParsedWeather, m preferences.Minima) []Violation {
	var violations []Violation

	if v := parsed.VisibilitySM; v != nil && *v < m.VisibilitySM {
		violations = append(violations, Violation{Dimension: Visibility, Observed: *v, Limit: m.VisibilitySM})
	}

	if c := parsed.CeilingFt; c != nil && *c < m.CeilingFt {
		violations = append(violations, Violation{Dimension: Ceiling, Observed: *c, Limit: m.CeilingFt})
	}

	if w := parsed.WindSpeedKts; w != nil && *w > m.WindSpeedKts {
		violations = append(violations, Violation{Dimension: WindSpeed, Observed: *w, Limit: m.WindSpeedKts, GustKts: parsed.WindGustKts})
	}

	if x := parsed.CrosswindComponentKts; x != nil && *x > m.CrosswindComponentKts {
		violations = append(violations, Violation{Dimension: Crosswind, Observed: *x, Limit: m.CrosswindComponentKts})
	}

	return violations
}

// Unknown lists the dimensions the parsed weather does not report
func Unknown(parsed weather.ParsedWeather) []Dimension {
	var unknown []Dimension
	if parsed.VisibilitySM == nil {
		unknown = append(unknown, Visibility)
	}
	if parsed.CeilingFt == nil {
		unknown = append(unknown, Ceiling)
	}
	if parsed.WindSpeedKts == nil {
		unknown = append(unknown, WindSpeed)
	}
	if parsed.CrosswindComponentKts == nil {
		unknown = append(unknown, Crosswind)
	}
	return unknown
}
