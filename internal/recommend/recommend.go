package recommend

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/yegors/preflight/internal/minima"
	"github.com/yegors/preflight/internal/notam"
	"github.com/yegors/preflight/internal/preferences"
)

// AllClear is the single reason given when nothing adverse was found
const AllClear = "All conditions are within acceptable parameters."

// Role identifies which airport of the route a finding belongs to
type Role string

const (
	Departure   Role = "Departure"
	Destination Role = "Destination"
)

// ClassifiedNotam pairs a NOTAM with its classification
type ClassifiedNotam struct {
	notam.Notam
	Classification notam.Classification `json:"classification"`
}

// Airport holds the findings for one end of the route
type Airport struct {
	Violations []minima.Violation
	Notams     []ClassifiedNotam
	Unknown    []minima.Dimension // dimensions that could not be evaluated
	Notes      []string           // additional caveats, e.g. data that failed to load
	Conditions Conditions
}

// Conditions are the observed values checked against the flight rules
type Conditions struct {
	VisibilitySM *float64
	CeilingFt    *float64
	Daytime      bool
}

// Input is everything the aggregator needs. FlightRules and Ratings only
// add caveats; an empty FlightRules skips those checks.
type Input struct {
	Departure       Airport
	Destination     Airport
	EnrouteWarnings []string
	FlightRules     preferences.FlightRules
	Ratings         []string
}

// Recommendation is the go/no-go decision with its reasons
type Recommendation struct {
	IsGo    bool     `json:"recommendation"`
	Reasons []string `json:"reasons"`
	Caveats []string `json:"caveats"`
}

// Aggregate combines closures, minima violations and enroute warnings into a
// recommendation. Closures and violations make it a no-go; enroute warnings
// are reported but do not change the decision.
func Aggregate(in Input) Recommendation {
	rec := Recommendation{IsGo: true, Reasons: []string{}, Caveats: []string{}}

	airports := []struct {
		role Role
		data Airport
	}{
		{Departure, in.Departure},
		{Destination, in.Destination},
	}

	for _, a := range airports {
		for _, n := range a.data.Notams {
			if !n.Classification.Closure {
				continue
			}
			rec.IsGo = false
			rec.Reasons = append(rec.Reasons, closureReason(a.role, n))
		}
	}

	for _, a := range airports {
		for _, v := range sortedViolations(a.data.Violations) {
			rec.IsGo = false
			rec.Reasons = append(rec.Reasons, violationReason(a.role, v))
		}
	}

	for _, w := range in.EnrouteWarnings {
		if w = strings.TrimSpace(w); w != "" {
			rec.Reasons = append(rec.Reasons, w)
		}
	}

	if len(rec.Reasons) == 0 {
		rec.Reasons = append(rec.Reasons, AllClear)
	}

	if caveat, ok := ratingCaveat(in.FlightRules, in.Ratings); ok {
		rec.Caveats = append(rec.Caveats, caveat)
	}
	for _, a := range airports {
		rec.Caveats = append(rec.Caveats, flightRulesCaveats(a.role, in.FlightRules, a.data.Conditions)...)
		for _, d := range a.data.Unknown {
			rec.Caveats = append(rec.Caveats, unknownCaveat(a.role, d))
		}
		for _, note := range a.data.Notes {
			rec.Caveats = append(rec.Caveats, fmt.Sprintf("%s airport %s", a.role, note))
		}
	}

	return rec
}

// sortedViolations returns a copy ordered by minima.Dimensions
func sortedViolations(violations []minima.Violation) []minima.Violation {
	sorted := slices.Clone(violations)
	slices.SortStableFunc(sorted, func(a, b minima.Violation) int {
		return cmp.Compare(dimensionRank(a.Dimension), dimensionRank(b.Dimension))
	})
	return sorted
}

func dimensionRank(d minima.Dimension) int {
	if i := slices.Index(minima.Dimensions, d); i >= 0 {
		return i
	}
	return len(minima.Dimensions)
}

func closureReason(role Role, n ClassifiedNotam) string {
	subject := n.Classification.Subject
	if subject == "" {
		subject = string(n.Classification.Kind)
	}
	if n.ID == "" {
		return fmt.Sprintf("%s airport has a closure NOTAM (%s): %s", role, subject, n.Text)
	}
	return fmt.Sprintf("%s airport has a closure NOTAM %s (%s): %s", role, n.ID, subject, n.Text)
}

func violationReason(role Role, v minima.Violation) string {
	switch v.Dimension {
	case minima.Visibility:
		return fmt.Sprintf("%s airport visibility is %sSM, which is below your minimum of %sSM",
			role, formatNumber(v.Observed), formatNumber(v.Limit))
	case minima.Ceiling:
		return fmt.Sprintf("%s airport ceiling is %sft, which is below your minimum of %sft",
			role, formatNumber(v.Observed), formatNumber(v.Limit))
	case minima.WindSpeed:
		gust := ""
		if v.GustKts != nil {
			gust = fmt.Sprintf(" gusting to %skts", formatNumber(*v.GustKts))
		}
		return fmt.Sprintf("%s airport winds are %skts%s, which exceeds your maximum of %skts",
			role, formatNumber(v.Observed), gust, formatNumber(v.Limit))
	case minima.Crosswind:
		return fmt.Sprintf("%s airport crosswind component is %skts, which exceeds your maximum of %skts",
			role, formatNumber(v.Observed), formatNumber(v.Limit))
	default:
		return fmt.Sprintf("%s airport %s is %s, outside your limit of %s",
			role, v.Dimension, formatNumber(v.Observed), formatNumber(v.Limit))
	}
}

func unknownCaveat(role Role, d minima.Dimension) string {
	return fmt.Sprintf("%s airport %s could not be determined and was not evaluated", role, d)
}

// formatNumber prints at most one decimal and drops a trailing ".0"
func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
