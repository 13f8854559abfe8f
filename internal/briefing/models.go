package briefing

import (
	"time"

	"github.com/yegors/preflight/internal/notam"
	"github.com/yegors/preflight/internal/recommend"
	"github.com/yegors/preflight/internal/storage/sqlite"
	"github.com/yegors/preflight/internal/weather"
)

// Pair holds one value per end of the route
type Pair[T any] struct {
	Departure   T `json:"departure"`
	Destination T `json:"destination"`
}

// Route summarises the leg between the two airports
type Route struct {
	Departure            string  `json:"departure"`
	Destination          string  `json:"destination"`
	Distance             float64 `json:"distance"` // nautical miles
	EstimatedTimeEnroute string  `json:"estimated_time_enroute"`
}

// RunwayWind is the wind relative to the runway end chosen for crosswind
type RunwayWind struct {
	Ident        string  `json:"ident"`
	HeadingTrue  float64 `json:"heading_true"`
	HeadwindKts  float64 `json:"headwind_kts"`
	CrosswindKts float64 `json:"crosswind_kts"`
}

// AirportWeather is the weather section for one airport
type AirportWeather struct {
	METAR   string                `json:"metar"`
	TAF     string                `json:"taf"`
	Parsed  weather.ParsedWeather `json:"parsed"`
	Daytime bool                  `json:"daytime"`
	Runway  *RunwayWind           `json:"runway,omitempty"`
}

// NotamEntry is a NOTAM with its classification as served to clients
type NotamEntry struct {
	notam.Notam
	Classification string     `json:"classification"`
	Kind           notam.Kind `json:"kind,omitempty"`
	Subject        string     `json:"subject,omitempty"`
}

// AirportInfo is the catalog section for one airport
type AirportInfo struct {
	Name      string                `json:"name"`
	Elevation int                   `json:"elevation"`
	Latitude  float64               `json:"latitude"`
	Longitude float64               `json:"longitude"`
	Runways   []sqlite.RunwayRecord `json:"runways"`
}

// Briefing is a complete go/no-go briefing for a route. A briefing is never
// modified after it is built; a new request produces a new briefing.
type Briefing struct {
	ID              string                   `json:"id"`
	GeneratedAt     time.Time                `json:"generated_at"`
	Recommendation  recommend.Recommendation `json:"recommendation"`
	Route           Route                    `json:"route"`
	Weather         Pair[AirportWeather]     `json:"weather"`
	Notams          Pair[[]NotamEntry]       `json:"notams"`
	AirportInfo     Pair[AirportInfo]        `json:"airport_info"`
	EnrouteWarnings []string                 `json:"enroute_warnings"`
}

// Record returns the history summary of the briefing
func (b *Briefing) Record() *sqlite.BriefingRecord {
	return &sqlite.BriefingRecord{
		ID:          b.ID,
		Departure:   b.Route.Departure,
		Destination: b.Route.Destination,
		IsGo:        b.Recommendation.IsGo,
		Reasons:     b.Recommendation.Reasons,
		Caveats:     b.Recommendation.Caveats,
		DistanceNM:  b.Route.Distance,
		CreatedAt:   b.GeneratedAt,
	}
}
