package weather

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yegors/preflight/internal/notam"
	"github.com/yegors/preflight/internal/physics"
	"github.com/yegors/preflight/pkg/logger"
)

// routeSampleNM is the spacing used when testing a route against advisory areas
const routeSampleNM = 10.0

// Service fetches, caches and serves weather data for briefings
type Service struct {
	config Config
	client *Client
	cache  *Cache
	group  singleflight.Group
	logger *logger.Logger

	// Service lifecycle; cancel is replaced on every Start
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.RWMutex

	sigmetsMu      sync.RWMutex
	sigmets        []SIGMETResponse
	sigmetsUpdated time.Time
}

// NewService creates a new weather service
func NewService(config Config, log *logger.Logger) *Service {
	return &Service{
		config: config,
		client: NewClient(config, log),
		cache:  NewCache(config.CacheSize, time.Duration(config.CacheExpiryMinutes)*time.Minute, log),
		logger: log.Named("weather-service"),
	}
}

// Start begins the background SIGMET refresh
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil // Already started
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if s.config.FetchSIGMETs {
		interval := time.Duration(s.config.SIGMETRefreshIntervalMinutes) * time.Minute
		s.logger.Info("Starting weather service",
			logger.Duration("sigmet_refresh_interval", interval))

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.backgroundRefresh(ctx, interval)
		}()
	}

	s.started = true
	return nil
}

// Stop gracefully shuts down the weather service
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil // Already stopped
	}

	s.logger.Info("Stopping weather service")
	s.cancel()
	s.wg.Wait()
	s.cache.Purge()

	s.started = false
	s.logger.Info("Weather service stopped")
	return nil
}

// Report returns the weather and NOTAMs for an airport, from the cache when
// fresh. Concurrent requests for the same airport share one upstream fetch.
// Fetch failures are recorded on the report; the error is only set when ctx
// ends before the report is ready.
func (s *Service) Report(ctx context.Context, icao string) (*Report, error) {
	icao = strings.ToUpper(strings.TrimSpace(icao))

	if report, ok := s.cache.Get(icao); ok {
		return report, nil
	}

	ch := s.group.DoChan(icao, func() (any, error) {
		// The shared fetch outlives any single caller
		report := s.fetchReport(context.WithoutCancel(ctx), icao)
		if len(report.FetchErrors) == 0 {
			s.cache.Set(report)
		}
		return report, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("weather for %s: %w", icao, ctx.Err())
	case res := <-ch:
		return res.Val.(*Report), nil
	}
}

// fetchReport fetches all enabled data types and folds them into a report
func (s *Service) fetchReport(ctx context.Context, icao string) *Report {
	startTime := time.Now()
	results := s.client.FetchAll(ctx, icao)

	report := &Report{
		ICAO:      icao,
		FetchedAt: time.Now(),
	}

	for _, result := range results {
		if result.Err != nil {
			if report.FetchErrors == nil {
				report.FetchErrors = make(map[WeatherType]string)
			}
			report.FetchErrors[result.Type] = result.Err.Error()
			s.logger.Warn("Failed to fetch weather data",
				logger.String("type", string(result.Type)),
				logger.String("airport", icao),
				logger.Error(result.Err))
			continue
		}

		switch result.Type {
		case WeatherTypeMETAR:
			report.METAR = result.METAR.RawOb
		case WeatherTypeTAF:
			report.TAF = result.TAF.RawTAF
		case WeatherTypeNOTAMs:
			report.NOTAMs = result.NOTAMs
		}
	}

	if report.NOTAMs == nil {
		report.NOTAMs = []notam.Notam{}
	}

	s.logger.Info("Weather data fetch completed",
		logger.String("airport", icao),
		logger.Duration("duration", time.Since(startTime)),
		logger.Int("total_requests", len(results)),
		logger.Int("failed_requests", len(report.FetchErrors)))

	return report
}

// backgroundRefresh keeps the SIGMET list current
func (s *Service) backgroundRefresh(ctx context.Context, interval time.Duration) {
	s.RefreshSIGMETs(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Background SIGMET refresh stopped")
			return
		case <-ticker.C:
			s.RefreshSIGMETs(ctx)
		}
	}
}

// RefreshSIGMETs replaces the cached SIGMET list. On failure the previous list is kept.
func (s *Service) RefreshSIGMETs(ctx context.Context) {
	sigmets, err := s.client.FetchSIGMETs(ctx)
	if err != nil {
		s.logger.Warn("Failed to refresh SIGMETs, keeping previous list", logger.Error(err))
		return
	}

	s.sigmetsMu.Lock()
	s.sigmets = sigmets
	s.sigmetsUpdated = time.Now()
	s.sigmetsMu.Unlock()

	s.logger.Debug("SIGMETs refreshed", logger.Int("count", len(sigmets)))
}

// EnrouteWarnings returns the raw text of active advisories whose area the
// straight route from dep to dest passes through
func (s *Service) EnrouteWarnings(dep, dest physics.LatLon) []string {
	s.sigmetsMu.RLock()
	sigmets := s.sigmets
	s.sigmetsMu.RUnlock()

	return RouteWarnings(sigmets, dep, dest, time.Now())
}

// RouteWarnings filters advisories to the ones active at now and crossed by the route
func RouteWarnings(sigmets []SIGMETResponse, dep, dest physics.LatLon, now time.Time) []string {
	warnings := []string{}
	seen := make(map[string]bool)

	for i := range sigmets {
		sigmet := &sigmets[i]
		if !sigmet.Active(now) || len(sigmet.Coords) < 3 {
			continue
		}
		if !physics.RouteIntersects(dep, dest, sigmet.Coords, routeSampleNM) {
			continue
		}

		text := strings.Join(strings.Fields(sigmet.RawAirSigmet), " ")
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		warnings = append(warnings, text)
	}
	return warnings
}

// GetCacheStats returns cache statistics
func (s *Service) GetCacheStats() map[string]any {
	stats := s.cache.GetStats()

	s.sigmetsMu.RLock()
	stats["sigmets"] = len(s.sigmets)
	stats["sigmets_updated"] = s.sigmetsUpdated
	s.sigmetsMu.RUnlock()

	return stats
}

// IsStarted returns whether the service is currently running
func (s *Service) IsStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
