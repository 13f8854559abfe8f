package weather

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yegors/preflight/pkg/logger"
)

// Cache keeps recent per-airport reports. Cached reports are shared between
// callers and must not be modified.
type Cache struct {
	lru    *expirable.LRU[string, *Report]
	ttl    time.Duration
	logger *logger.Logger
}

// NewCache creates a new weather cache holding at most size airports
func NewCache(size int, ttl time.Duration, log *logger.Logger) *Cache {
	c := &Cache{
		ttl:    ttl,
		logger: log.Named("weather-cache"),
	}
	c.lru = expirable.NewLRU[string, *Report](size, func(icao string, _ *Report) {
		c.logger.Debug("Weather report evicted", logger.String("airport", icao))
	}, ttl)
	return c
}

// Get returns the cached report for an airport
func (c *Cache) Get(icao string) (*Report, bool) {
	return c.lru.Get(icao)
}

// Set stores a report under its airport code
func (c *Cache) Set(report *Report) {
	c.lru.Add(report.ICAO, report)

	c.logger.Debug("Weather report cached",
		logger.String("airport", report.ICAO),
		logger.Time("fetched_at", report.FetchedAt),
		logger.Time("expires_at", time.Now().Add(c.ttl)))
}

// Purge clears the cache
func (c *Cache) Purge() {
	c.lru.Purge()
	c.logger.Info("Weather cache invalidated")
}

// GetStats returns cache statistics
func (c *Cache) GetStats() map[string]any {
	return map[string]any{
		"airports":    c.lru.Len(),
		"ttl_seconds": int(c.ttl.Seconds()),
	}
}
