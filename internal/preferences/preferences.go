package preferences

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/brunoga/deep"
)

// FlightRules is VFR or IFR
type FlightRules string

const (
	VFR FlightRules = "VFR"
	IFR FlightRules = "IFR"
)

// Known pilot ratings
const (
	RatingPrivate     = "PRIVATE"
	RatingCommercial  = "COMMERCIAL"
	RatingATP         = "ATP"
	RatingInstrument  = "INSTRUMENT"
	RatingMultiEngine = "MULTI_ENGINE"
)

var knownRatings = []string{RatingATP, RatingCommercial, RatingInstrument, RatingMultiEngine, RatingPrivate}

// Minima are the personal limits for one period of the day
type Minima struct {
	VisibilitySM          float64 `json:"visibility_sm"`
	CeilingFt             float64 `json:"ceiling_ft"`
	WindSpeedKts          float64 `json:"wind_speed_kts"`
	CrosswindComponentKts float64 `json:"crosswind_component_kts"`
}

// PilotPreferences is the complete profile used to evaluate a briefing
type PilotPreferences struct {
	Ratings       []string    `json:"ratings"`
	FlightRules   FlightRules `json:"flight_rules"`
	DayMinimums   Minima      `json:"day_minimums"`
	NightMinimums Minima      `json:"night_minimums"`
}

var defaultProfile = PilotPreferences{
	Ratings:     []string{RatingPrivate},
	FlightRules: VFR,
	DayMinimums: Minima{
		VisibilitySM:          5,
		CeilingFt:             3000,
		WindSpeedKts:          20,
		CrosswindComponentKts: 10,
	},
	NightMinimums: Minima{
		VisibilitySM:          6,
		CeilingFt:             4000,
		WindSpeedKts:          15,
		CrosswindComponentKts: 8,
	},
}

// Default returns a fresh copy of the default profile
func Default() PilotPreferences {
	return deep.MustCopy(defaultProfile)
}

// MinimaFor returns the day or night minima
func (p PilotPreferences) MinimaFor(daytime bool) Minima {
	if daytime {
		return p.DayMinimums
	}
	return p.NightMinimums
}

// Encode serializes the preferences for storage or a query string
func (p PilotPreferences) Encode() ([]byte, error) {
	return json.Marshal(p)
}

// storedMinima mirrors Minima with every key optional
type storedMinima struct {
	VisibilitySM          *float64 `json:"visibility_sm"`
	CeilingFt             *float64 `json:"ceiling_ft"`
	WindSpeedKts          *float64 `json:"wind_speed_kts"`
	CrosswindComponentKts *float64 `json:"crosswind_component_kts"`
}

type storedPreferences struct {
	Ratings       []string      `json:"ratings"`
	FlightRules   *string       `json:"flight_rules"`
	DayMinimums   *storedMinima `json:"day_minimums"`
	NightMinimums *storedMinima `json:"night_minimums"`

	// Older clients kept a single crosswind limit, sometimes as a string
	Crosswind json.RawMessage `json:"crosswind"`
}

// Load merges stored data over the default profile key by key. Missing or
// invalid fields take their default; data that does not decode yields the
// full default profile.
func Load(stored []byte) PilotPreferences {
	prefs := Default()
	if len(strings.TrimSpace(string(stored))) == 0 {
		return prefs
	}

	var s storedPreferences
	if err := json.Unmarshal(stored, &s); err != nil {
		return prefs
	}

	if s.Ratings != nil {
		prefs.Ratings = normalizeRatings(s.Ratings)
	}

	if s.FlightRules != nil {
		switch rules := FlightRules(strings.ToUpper(strings.TrimSpace(*s.FlightRules))); rules {
		case VFR, IFR:
			prefs.FlightRules = rules
		}
	}

	if legacy, ok := legacyCrosswind(s.Crosswind); ok {
		prefs.DayMinimums.CrosswindComponentKts = legacy
		prefs.NightMinimums.CrosswindComponentKts = legacy
	}

	mergeMinima(&prefs.DayMinimums, s.DayMinimums)
	mergeMinima(&prefs.NightMinimums, s.NightMinimums)

	return prefs
}

func mergeMinima(dst *Minima, src *storedMinima) {
	if src == nil {
		return
	}
	if valid(src.VisibilitySM) {
		dst.VisibilitySM = *src.VisibilitySM
	}
	if valid(src.CeilingFt) {
		dst.CeilingFt = *src.CeilingFt
	}
	if valid(src.WindSpeedKts) {
		dst.WindSpeedKts = *src.WindSpeedKts
	}
	if valid(src.CrosswindComponentKts) {
		dst.CrosswindComponentKts = *src.CrosswindComponentKts
	}
}

func valid(v *float64) bool {
	return v != nil && *v >= 0 && !math.IsInf(*v, 0) && !math.IsNaN(*v)
}

func normalizeRatings(ratings []string) []string {
	out := make([]string, 0, len(ratings))
	for _, r := range ratings {
		r = strings.ToUpper(strings.TrimSpace(r))
		if slices.Contains(knownRatings, r) && !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return out
}

func legacyCrosswind(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, valid(&n)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return n, valid(&n)
}
