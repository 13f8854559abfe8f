package recommend

import (
	"fmt"
	"slices"
	"strings"

	"github.com/yegors/preflight/internal/preferences"
)

// Regulatory floors, independent of the pilot's personal minima
const (
	vfrVisibilitySM      = 5.0
	vfrCeilingFt         = 3000.0
	nightVFRVisibilitySM = 3.0
	nightVFRCeilingFt    = 1000.0
	svfrVisibilitySM     = 1.0
	svfrCeilingFt        = 500.0
	ifrVisibilitySM      = 0.5
	ifrCeilingFt         = 200.0
)

const instrumentRatingCaveat = "IFR flight requires an instrument rating, which is not among your ratings"

func ratingCaveat(rules preferences.FlightRules, ratings []string) (string, bool) {
	if rules != preferences.IFR || slices.Contains(ratings, preferences.RatingInstrument) {
		return "", false
	}
	return instrumentRatingCaveat, true
}

// flightRulesCaveats compares an airport's conditions with the floors of the
// planned flight rules. Unknown values are skipped.
func flightRulesCaveats(role Role, rules preferences.FlightRules, c Conditions) []string {
	switch rules {
	case preferences.IFR:
		if below := belowFloors(c, ifrVisibilitySM, ifrCeilingFt); below != "" {
			return []string{fmt.Sprintf("%s airport conditions are below standard IFR approach minimums (%s)", role, below)}
		}
	case preferences.VFR:
		if belowFloors(c, vfrVisibilitySM, vfrCeilingFt) == "" {
			return nil
		}
		if !c.Daytime {
			return nightVFRCaveats(role, c)
		}
		if below := belowFloors(c, svfrVisibilitySM, svfrCeilingFt); below != "" {
			return []string{fmt.Sprintf("%s airport conditions require IFR (%s), Special VFR is not possible", role, below)}
		}
		return []string{fmt.Sprintf("%s airport is below basic VFR minimums (%s), Special VFR would be required",
			role, belowFloors(c, vfrVisibilitySM, vfrCeilingFt))}
	}
	return nil
}

func nightVFRCaveats(role Role, c Conditions) []string {
	var caveats []string
	if v := c.VisibilitySM; v != nil && *v < nightVFRVisibilitySM {
		caveats = append(caveats, fmt.Sprintf("%s airport visibility of %sSM is below the night VFR minimum of %sSM",
			role, formatNumber(*v), formatNumber(nightVFRVisibilitySM)))
	}
	if h := c.CeilingFt; h != nil && *h < nightVFRCeilingFt {
		caveats = append(caveats, fmt.Sprintf("%s airport ceiling of %sft is below the night VFR minimum of %sft",
			role, formatNumber(*h), formatNumber(nightVFRCeilingFt)))
	}
	return caveats
}

// belowFloors describes the known values under the given floors, or returns
// "" when none are
func belowFloors(c Conditions, visibilitySM, ceilingFt float64) string {
	var parts []string
	if v := c.VisibilitySM; v != nil && *v < visibilitySM {
		parts = append(parts, "visibility "+formatNumber(*v)+"SM")
	}
	if h := c.CeilingFt; h != nil && *h < ceilingFt {
		parts = append(parts, "ceiling "+formatNumber(*h)+"ft")
	}
	return strings.Join(parts, " and ")
}
