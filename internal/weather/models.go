package weather

import (
	"time"

	"github.com/yegors/preflight/internal/notam"
	"github.com/yegors/preflight/internal/physics"
)

// Report holds the raw weather and NOTAMs fetched for one airport
type Report struct {
	ICAO        string                 `json:"icao"`
	METAR       string                 `json:"metar"`
	TAF         string                 `json:"taf"`
	NOTAMs      []notam.Notam          `json:"notams"`
	FetchedAt   time.Time              `json:"fetched_at"`
	FetchErrors map[WeatherType]string `json:"fetch_errors,omitempty"`
}

// Failed reports whether fetching the given data type failed
func (r *Report) Failed(t WeatherType) bool {
	_, ok := r.FetchErrors[t]
	return ok
}

// METARResponse is one observation from the AviationWeather.gov metar endpoint.
// Only the fields the briefing needs are decoded; wdir and visib change type
// between reports and are taken from the raw text instead.
type METARResponse struct {
	ICAOID     string `json:"icaoId"`
	ReportTime string `json:"reportTime"`
	RawOb      string `json:"rawOb"`
	Name       string `json:"name"`
}

// TAFResponse is one forecast from the AviationWeather.gov taf endpoint
type TAFResponse struct {
	ICAOID    string `json:"icaoId"`
	IssueTime string `json:"issueTime"`
	RawTAF    string `json:"rawTAF"`
}

// SIGMETResponse is one advisory from the AviationWeather.gov airsigmet endpoint
type SIGMETResponse struct {
	AirSigmetType string           `json:"airSigmetType"`
	Hazard        string           `json:"hazard"`
	ValidTimeFrom int64            `json:"validTimeFrom"`
	ValidTimeTo   int64            `json:"validTimeTo"`
	RawAirSigmet  string           `json:"rawAirSigmet"`
	Coords        []physics.LatLon `json:"coords"`
}

// Active reports whether the advisory is valid at t. Zero bounds are open.
func (s *SIGMETResponse) Active(t time.Time) bool {
	unix := t.Unix()
	if s.ValidTimeFrom > 0 && unix < s.ValidTimeFrom {
		return false
	}
	if s.ValidTimeTo > 0 && unix > s.ValidTimeTo {
		return false
	}
	return true
}

// Config represents the weather service configuration
type Config struct {
	APIBaseURL                   string
	NOTAMsBaseURL                string
	RequestTimeoutSeconds        int
	MaxRetries                   int
	FetchMETAR                   bool
	FetchTAF                     bool
	FetchNOTAMs                  bool
	FetchSIGMETs                 bool
	CacheExpiryMinutes           int
	CacheSize                    int
	SIGMETRefreshIntervalMinutes int
}

// WeatherType represents the type of weather data
type WeatherType string

const (
	WeatherTypeMETAR   WeatherType = "metar"
	WeatherTypeTAF     WeatherType = "taf"
	WeatherTypeNOTAMs  WeatherType = "notams"
	WeatherTypeSIGMETs WeatherType = "sigmets"
)

// Label returns the name pilots use for the data type
func (t WeatherType) Label() string {
	switch t {
	case WeatherTypeMETAR:
		return "METAR"
	case WeatherTypeTAF:
		return "TAF"
	case WeatherTypeNOTAMs:
		return "NOTAMs"
	case WeatherTypeSIGMETs:
		return "SIGMETs"
	default:
		return string(t)
	}
}

// FetchResult represents the result of fetching weather data
type FetchResult struct {
	Type   WeatherType
	METAR  *METARResponse
	TAF    *TAFResponse
	NOTAMs []notam.Notam
	Err    error
}

// DefaultConfig returns the default weather configuration
func DefaultConfig() Config {
	return Config{
		APIBaseURL:                   "https://aviationweather.gov/api/data",
		NOTAMsBaseURL:                "https://node.windy.com/airports/notams",
		RequestTimeoutSeconds:        10,
		MaxRetries:                   2,
		FetchMETAR:                   true,
		FetchTAF:                     true,
		FetchNOTAMs:                  true,
		FetchSIGMETs:                 true,
		CacheExpiryMinutes:           5,
		CacheSize:                    256,
		SIGMETRefreshIntervalMinutes: 15,
	}
}
