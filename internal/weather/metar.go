package weather

import (
	"regexp"
	"strconv"
	"strings"
)

// CeilingUnlimited is reported when no broken, overcast or obscured layer exists
const CeilingUnlimited = 99999

// FlightCategory is the FAA flight category derived from ceiling and visibility
type FlightCategory string

const (
	CategoryVFR     FlightCategory = "VFR"
	CategoryMVFR    FlightCategory = "MVFR"
	CategoryIFR     FlightCategory = "IFR"
	CategoryLIFR    FlightCategory = "LIFR"
	CategoryUnknown FlightCategory = "UNKNOWN"
)

// ParsedWeather holds the values extracted from a raw METAR or TAF.
// A nil field could not be extracted from the report.
type ParsedWeather struct {
	WindDirectionDeg      *int           `json:"wind_direction_deg"`
	WindSpeedKts          *float64       `json:"wind_speed_kts"`
	WindGustKts           *float64       `json:"wind_gust_kts"`
	CrosswindComponentKts *float64       `json:"crosswind_component_kts"`
	VisibilitySM          *float64       `json:"visibility_sm"`
	CeilingFt             *float64       `json:"ceiling_ft"`
	FlightCategory        FlightCategory `json:"flight_category"`
}

var (
	// 18010KT, 27015G25KT, VRB03KT, 00000KT
	reWind = regexp.MustCompile(`^(\d{3}|VRB)(\d{2,3})(?:G(\d{2,3}))?KT$`)
	// 180V240
	reWindVariation = regexp.MustCompile(`^\d{3}V\d{3}$`)
	// BKN015, OVC008CB, VV002
	reCeilingLayer = regexp.MustCompile(`^(BKN|OVC|VV)(\d{3})`)
	// 10SM, 1/2SM, M1/4SM, P6SM
	reVisibility = regexp.MustCompile(`^(M|P)?(\d{1,2}|\d{1,2}/\d{1,2})SM$`)
	// 9999, 0800 metric visibility
	reMetricVisibility = regexp.MustCompile(`^\d{4}$`)
	reWholeNumber      = regexp.MustCompile(`^\d{1,2}$`)
)

// ParseReport extracts wind, visibility, ceiling and flight category from a
// raw METAR or TAF string. It never fails: groups that are missing or
// malformed leave the corresponding field nil.
func ParseReport(raw string) ParsedWeather {
	parsed := ParsedWeather{FlightCategory: CategoryUnknown}

	fields := reportFields(raw)
	if len(fields) == 0 {
		return parsed
	}

	parseWind(fields, &parsed)
	parsed.VisibilitySM = parseVisibility(fields)
	parsed.CeilingFt = parseCeiling(fields)
	parsed.FlightCategory = Category(parsed.CeilingFt, parsed.VisibilitySM)

	return parsed
}

// reportFields splits the report into groups, dropping remarks
func reportFields(raw string) []string {
	fields := strings.Fields(strings.ToUpper(raw))
	for i, f := range fields {
		if f == "RMK" {
			return fields[:i]
		}
	}
	return fields
}

func parseWind(fields []string, parsed *ParsedWeather) {
	for _, f := range fields {
		m := reWind.FindStringSubmatch(f)
		if m == nil {
			continue
		}

		speed, err := strconv.Atoi(m[2])
		if err != nil {
			return
		}
		parsed.WindSpeedKts = ptr(float64(speed))

		if m[1] != "VRB" {
			if dir, err := strconv.Atoi(m[1]); err == nil && dir <= 360 {
				parsed.WindDirectionDeg = ptr(dir)
			}
		}

		if m[3] != "" {
			if gust, err := strconv.Atoi(m[3]); err == nil {
				parsed.WindGustKts = ptr(float64(gust))
			}
		}
		return
	}
}

func parseVisibility(fields []string) *float64 {
	for i, f := range fields {
		if f == "CAVOK" {
			return ptr(10.0)
		}

		// Station identifiers such as KCSM also end in SM
		m := reVisibility.FindStringSubmatch(f)
		if m == nil {
			continue
		}
		v, ok := parseVisibilityValue(m[2])
		if !ok {
			continue
		}

		switch m[1] {
		case "M":
			// Below the lowest reportable value
			return ptr(0.0)
		case "P":
			// Above the highest reportable value
			return ptr(v + 1)
		}

		// "1 1/2SM" is split across two groups
		if strings.Contains(m[2], "/") && i > 0 && reWholeNumber.MatchString(fields[i-1]) {
			whole, _ := strconv.Atoi(fields[i-1])
			v += float64(whole)
		}
		return ptr(v)
	}

	return parseMetricVisibility(fields)
}

// parseVisibilityValue handles "10", "3" and "1/2"
func parseVisibilityValue(s string) (float64, bool) {
	if num, den, found := strings.Cut(s, "/"); found {
		n, err := strconv.Atoi(num)
		if err != nil {
			return 0, false
		}
		d, err := strconv.Atoi(den)
		if err != nil || d == 0 {
			return 0, false
		}
		return float64(n) / float64(d), true
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return float64(v), true
}

// parseMetricVisibility reads the four digit metre group that follows the
// wind group in reports from outside the US
func parseMetricVisibility(fields []string) *float64 {
	for i, f := range fields {
		if !reWind.MatchString(f) {
			continue
		}

		next := i + 1
		if next < len(fields) && reWindVariation.MatchString(fields[next]) {
			next++
		}
		if next >= len(fields) || !reMetricVisibility.MatchString(fields[next]) {
			return nil
		}

		metres, err := strconv.Atoi(fields[next])
		if err != nil {
			return nil
		}
		if metres == 9999 {
			// 10 km or more
			return ptr(10.0)
		}
		sm := float64(metres) / 1609.344
		return ptr(float64(int(sm*100+0.5)) / 100)
	}
	return nil
}

func parseCeiling(fields []string) *float64 {
	lowest := -1
	for _, f := range fields {
		if f == "CAVOK" {
			continue
		}
		m := reCeilingLayer.FindStringSubmatch(f)
		if m == nil {
			continue
		}
		height, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		height *= 100
		if lowest < 0 || height < lowest {
			lowest = height
		}
	}

	if lowest < 0 {
		return ptr(float64(CeilingUnlimited))
	}
	return ptr(float64(lowest))
}

// Category derives the flight category. Unknown visibility or ceiling yields
// CategoryUnknown.
func Category(ceilingFt, visibilitySM *float64) FlightCategory {
	if ceilingFt == nil || visibilitySM == nil {
		return CategoryUnknown
	}
	ceiling, vis := *ceilingFt, *visibilitySM

	switch {
	case ceiling < 500 || vis < 1:
		return CategoryLIFR
	case ceiling < 1000 || vis < 3:
		return CategoryIFR
	case ceiling <= 3000 || vis <= 5:
		return CategoryMVFR
	default:
		return CategoryVFR
	}
}

func ptr[T any](v T) *T {
	return &v
}
