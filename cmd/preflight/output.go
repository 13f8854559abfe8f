package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/yegors/preflight/internal/briefing"
	"github.com/yegors/preflight/internal/weather"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func verdict(isGo bool) string {
	if isGo {
		return "GO"
	}
	return "NO-GO"
}

func renderBriefing(w io.Writer, b *briefing.Briefing) {
	fmt.Fprintf(w, "%s -> %s  %.1f NM  ETE %s\n",
		b.Route.Departure, b.Route.Destination, b.Route.Distance, b.Route.EstimatedTimeEnroute)
	fmt.Fprintf(w, "Recommendation: %s\n", verdict(b.Recommendation.IsGo))
	for _, reason := range b.Recommendation.Reasons {
		fmt.Fprintf(w, "  - %s\n", reason)
	}
	if len(b.Recommendation.Caveats) > 0 {
		fmt.Fprintln(w, "Caveats:")
		for _, caveat := range b.Recommendation.Caveats {
			fmt.Fprintf(w, "  - %s\n", caveat)
		}
	}

	renderAirport(w, "Departure", b.Route.Departure, b.AirportInfo.Departure, b.Weather.Departure, b.Notams.Departure)
	renderAirport(w, "Destination", b.Route.Destination, b.AirportInfo.Destination, b.Weather.Destination, b.Notams.Destination)

	if len(b.EnrouteWarnings) > 0 {
		fmt.Fprintln(w, "\nEnroute:")
		for _, warning := range b.EnrouteWarnings {
			fmt.Fprintf(w, "  ! %s\n", warning)
		}
	}
}

func renderAirport(w io.Writer, role, code string, info briefing.AirportInfo, wx briefing.AirportWeather, notams []briefing.NotamEntry) {
	fmt.Fprintf(w, "\n%s %s (%s), elevation %d ft\n", role, code, info.Name, info.Elevation)
	if wx.METAR != "" {
		fmt.Fprintf(w, "  METAR %s\n", wx.METAR)
	}
	if wx.TAF != "" {
		fmt.Fprintf(w, "  TAF   %s\n", strings.Join(strings.Fields(wx.TAF), " "))
	}
	fmt.Fprintf(w, "  %s  %s\n", wx.Parsed.FlightCategory, conditions(wx.Parsed))
	if wx.Runway != nil {
		fmt.Fprintf(w, "  Runway %s: headwind %.0f kt, crosswind %.0f kt\n",
			wx.Runway.Ident, wx.Runway.HeadwindKts, wx.Runway.CrosswindKts)
	}
	for _, n := range notams {
		fmt.Fprintf(w, "  [%s] %s %s\n", n.Classification, n.ID, n.Text)
	}
}

func conditions(p weather.ParsedWeather) string {
	var parts []string
	if p.WindSpeedKts != nil {
		wind := fmt.Sprintf("wind %.0f kt", *p.WindSpeedKts)
		if p.WindDirectionDeg != nil {
			wind = fmt.Sprintf("wind %03d@%.0f kt", *p.WindDirectionDeg, *p.WindSpeedKts)
		}
		if p.WindGustKts != nil {
			wind += fmt.Sprintf(" G%.0f", *p.WindGustKts)
		}
		parts = append(parts, wind)
	}
	if p.VisibilitySM != nil {
		parts = append(parts, fmt.Sprintf("vis %g SM", *p.VisibilitySM))
	}
	if p.CeilingFt != nil {
		parts = append(parts, fmt.Sprintf("ceiling %.0f ft", *p.CeilingFt))
	} else {
		parts = append(parts, "no ceiling")
	}
	return strings.Join(parts, ", ")
}
