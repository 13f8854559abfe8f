package briefing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yegors/preflight/internal/minima"
	"github.com/yegors/preflight/internal/notam"
	"github.com/yegors/preflight/internal/physics"
	"github.com/yegors/preflight/internal/preferences"
	"github.com/yegors/preflight/internal/recommend"
	"github.com/yegors/preflight/internal/storage/sqlite"
	"github.com/yegors/preflight/internal/weather"
	"github.com/yegors/preflight/pkg/logger"
)

var (
	// ErrInvalidCode is returned for codes that are not four letters or digits
	ErrInvalidCode = errors.New("invalid airport code")
	// ErrAirportNotFound is returned for well-formed codes missing from the catalog
	ErrAirportNotFound = sqlite.ErrAirportNotFound
)

// Catalog looks up airports
type Catalog interface {
	Get(ctx context.Context, icao string) (*sqlite.AirportRecord, error)
}

// WeatherSource provides per-airport reports and route advisories
type WeatherSource interface {
	Report(ctx context.Context, icao string) (*weather.Report, error)
	EnrouteWarnings(dep, dest physics.LatLon) []string
}

// History records served briefings
type History interface {
	StoreBriefing(ctx context.Context, record *sqlite.BriefingRecord) error
}

// Config contains briefing assembly settings
type Config struct {
	CruiseSpeedKts float64
	Timeout        time.Duration
}

// Service assembles briefings
type Service struct {
	catalog Catalog
	weather WeatherSource
	history History
	config  Config
	logger  *logger.Logger
	now     func() time.Time
}

// NewService creates a briefing service. history may be nil.
func NewService(catalog Catalog, wx WeatherSource, history History, config Config, log *logger.Logger) *Service {
	return &Service{
		catalog: catalog,
		weather: wx,
		history: history,
		config:  config,
		logger:  log.Named("briefing"),
		now:     time.Now,
	}
}

// airportData is everything fetched for one end of the route
type airportData struct {
	record *sqlite.AirportRecord
	report *weather.Report
}

// Build fetches both airports concurrently and evaluates the route against
// the pilot's preferences
func (s *Service) Build(ctx context.Context, departure, destination string, prefs preferences.PilotPreferences) (*Briefing, error) {
	departure = strings.ToUpper(strings.TrimSpace(departure))
	destination = strings.ToUpper(strings.TrimSpace(destination))
	for _, code := range []string{departure, destination} {
		if !sqlite.IsAirportCode(code) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCode, code)
		}
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	var dep, dest airportData
	g, gctx := errgroup.WithContext(ctx)
	s.fetch(gctx, g, departure, &dep)
	s.fetch(gctx, g, destination, &dest)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	depPos := physics.LatLon{Lat: dep.record.Latitude, Lon: dep.record.Longitude}
	destPos := physics.LatLon{Lat: dest.record.Latitude, Lon: dest.record.Longitude}

	depWeather, depFindings := s.evaluate(dep, prefs, now)
	destWeather, destFindings := s.evaluate(dest, prefs, now)
	warnings := s.weather.EnrouteWarnings(depPos, destPos)

	distance := physics.DistanceNM(depPos.Lat, depPos.Lon, destPos.Lat, destPos.Lon)

	b := &Briefing{
		ID:          uuid.NewString(),
		GeneratedAt: now,
		Recommendation: recommend.Aggregate(recommend.Input{
			Departure:       depFindings,
			Destination:     destFindings,
			EnrouteWarnings: warnings,
			FlightRules:     prefs.FlightRules,
			Ratings:         prefs.Ratings,
		}),
		Route: Route{
			Departure:            departure,
			Destination:          destination,
			Distance:             math.Round(distance*10) / 10,
			EstimatedTimeEnroute: physics.EstimatedTimeEnroute(distance, s.config.CruiseSpeedKts),
		},
		Weather: Pair[AirportWeather]{Departure: depWeather, Destination: destWeather},
		Notams: Pair[[]NotamEntry]{
			Departure:   notamEntries(depFindings.Notams),
			Destination: notamEntries(destFindings.Notams),
		},
		AirportInfo:     Pair[AirportInfo]{Departure: airportInfo(dep.record), Destination: airportInfo(dest.record)},
		EnrouteWarnings: warnings,
	}

	s.logger.Info("Briefing built",
		logger.String("id", b.ID),
		logger.String("departure", departure),
		logger.String("destination", destination),
		logger.Bool("go", b.Recommendation.IsGo),
		logger.Int("reasons", len(b.Recommendation.Reasons)),
		logger.Int("caveats", len(b.Recommendation.Caveats)))

	if s.history != nil {
		if err := s.history.StoreBriefing(context.WithoutCancel(ctx), b.Record()); err != nil {
			s.logger.Warn("Failed to record briefing", logger.String("id", b.ID), logger.Error(err))
		}
	}

	return b, nil
}

// fetch schedules the catalog lookup and weather fetch for one airport
func (s *Service) fetch(ctx context.Context, g *errgroup.Group, icao string, out *airportData) {
	g.Go(func() error {
		record, err := s.catalog.Get(ctx, icao)
		if err != nil {
			return fmt.Errorf("airport %s: %w", icao, err)
		}
		out.record = record
		return nil
	})
	g.Go(func() error {
		report, err := s.weather.Report(ctx, icao)
		if err != nil {
			return err
		}
		out.report = report
		return nil
	})
}

// evaluate parses the airport's weather, fills in the crosswind from the
// runway layout and collects its findings
func (s *Service) evaluate(data airportData, prefs preferences.PilotPreferences, now time.Time) (AirportWeather, recommend.Airport) {
	record, report := data.record, data.report
	findings := recommend.Airport{Notams: []recommend.ClassifiedNotam{}}

	wx := AirportWeather{
		METAR:   report.METAR,
		TAF:     report.TAF,
		Daytime: physics.IsDaytime(record.Latitude, record.Longitude, now),
	}

	switch {
	case report.METAR != "":
		wx.Parsed = weather.ParseReport(report.METAR)
	case report.TAF != "":
		wx.Parsed = weather.ParseReport(report.TAF)
		findings.Notes = append(findings.Notes, "has no current METAR, conditions were taken from the TAF")
	default:
		wx.Parsed = weather.ParseReport("")
	}

	if dir, speed := wx.Parsed.WindDirectionDeg, wx.Parsed.WindSpeedKts; dir != nil && speed != nil {
		if rwy := bestRunway(runwayEnds(record, now), float64(*dir), *speed); rwy != nil {
			wx.Runway = rwy
			crosswind := rwy.CrosswindKts
			wx.Parsed.CrosswindComponentKts = &crosswind
		}
	}

	for _, t := range []weather.WeatherType{weather.WeatherTypeMETAR, weather.WeatherTypeTAF, weather.WeatherTypeNOTAMs} {
		if report.Failed(t) {
			findings.Notes = append(findings.Notes, t.Label()+" could not be retrieved")
		}
	}

	findings.Violations = minima.Evaluate(wx.Parsed, prefs, wx.Daytime)
	findings.Unknown = minima.Unknown(wx.Parsed)
	findings.Conditions = recommend.Conditions{
		VisibilitySM: wx.Parsed.VisibilitySM,
		CeilingFt:    wx.Parsed.CeilingFt,
		Daytime:      wx.Daytime,
	}
	for _, n := range report.NOTAMs {
		findings.Notams = append(findings.Notams, recommend.ClassifiedNotam{Notam: n, Classification: notam.Classify(n)})
	}

	return wx, findings
}

func notamEntries(classified []recommend.ClassifiedNotam) []NotamEntry {
	entries := make([]NotamEntry, 0, len(classified))
	for _, c := range classified {
		entries = append(entries, NotamEntry{
			Notam:          c.Notam,
			Classification: c.Classification.Label(),
			Kind:           c.Classification.Kind,
			Subject:        c.Classification.Subject,
		})
	}
	return entries
}

func airportInfo(record *sqlite.AirportRecord) AirportInfo {
	runways := record.Runways
	if runways == nil {
		runways = []sqlite.RunwayRecord{}
	}
	return AirportInfo{
		Name:      record.Name,
		Elevation: record.ElevationFt,
		Latitude:  record.Latitude,
		Longitude: record.Longitude,
		Runways:   runways,
	}
}
