package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server   ServerConfig   `toml:"server"`   // HTTP server settings
	Logging  LoggingConfig  `toml:"logging"`  // Application logging settings
	Storage  StorageConfig  `toml:"storage"`  // Data persistence settings
	Airports AirportsConfig `toml:"airports"` // Airport catalog import settings
	Weather  WeatherConfig  `toml:"wx"`       // Weather and NOTAM fetching and caching settings
	Resolver ResolverConfig `toml:"resolver"` // Airport code resolution settings
	Briefing BriefingConfig `toml:"briefing"` // Briefing assembly settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                    // Primary HTTP port for the server
	Host               string   `toml:"host"`                    // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`    // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`    // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"`   // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`    // Maximum duration to wait for the next request when keep-alives are enabled
	RequestTimeoutSecs int      `toml:"request_timeout_seconds"` // Per-request handler deadline for API routes
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level      string `toml:"level"`        // Log level: "debug", "info", "warn", or "error"
	Format     string `toml:"format"`       // Log format: "json" (structured) or "console" (human-readable)
	File       string `toml:"file"`         // Optional log file, rotated by size (empty = stderr only)
	MaxSizeMB  int    `toml:"max_size_mb"`  // Rotate the log file after this many megabytes
	MaxBackups int    `toml:"max_backups"`  // Number of rotated files to keep
	MaxAgeDays int    `toml:"max_age_days"` // Delete rotated files older than this many days
}

// StorageConfig contains data persistence configuration
type StorageConfig struct {
	Type       string `toml:"type"`        // Storage backend type (currently only "sqlite" is supported)
	SQLitePath string `toml:"sqlite_path"` // Path to the SQLite database file
}

// AirportsConfig contains airport catalog configuration
type AirportsConfig struct {
	AirportsDBPath   string `toml:"airports_db_path"`   // Path to airport database CSV file (OurAirports format)
	RunwaysDBPath    string `toml:"runways_db_path"`    // Path to runway database CSV file (OurAirports format)
	RefreshAfterDays int    `toml:"refresh_after_days"` // Re-import the CSVs when the catalog is older than this
	SearchLimit      int    `toml:"search_limit"`       // Maximum number of codes returned by a prefix search
}

// WeatherConfig contains weather data fetching and caching configuration
type WeatherConfig struct {
	APIBaseURL                   string `toml:"api_base_url"`                    // Base URL for the AviationWeather.gov data API
	NOTAMsBaseURL                string `toml:"notams_api_base_url"`             // Base URL for NOTAMs, queried as <base>/<ICAO>
	RequestTimeoutSeconds        int    `toml:"request_timeout_seconds"`         // HTTP request timeout in seconds
	MaxRetries                   int    `toml:"max_retries"`                     // Maximum number of retry attempts for failed requests
	FetchMETAR                   bool   `toml:"fetch_metar"`                     // Whether to fetch METAR data
	FetchTAF                     bool   `toml:"fetch_taf"`                       // Whether to fetch TAF data
	FetchNOTAMs                  bool   `toml:"fetch_notams"`                    // Whether to fetch NOTAM data
	FetchSIGMETs                 bool   `toml:"fetch_sigmets"`                   // Whether to fetch SIGMETs/AIRMETs for enroute warnings
	CacheExpiryMinutes           int    `toml:"cache_expiry_minutes"`            // How long per-airport data stays cached
	CacheSize                    int    `toml:"cache_size"`                      // Maximum number of airports kept in the cache
	SIGMETRefreshIntervalMinutes int    `toml:"sigmet_refresh_interval_minutes"` // How often enroute warnings are refreshed
}

// ResolverConfig contains airport code resolution settings
type ResolverConfig struct {
	DebounceMs int `toml:"debounce_ms"` // Input must be stable this long before a lookup is issued
	MinChars   int `toml:"min_chars"`   // Shortest input that triggers a lookup
}

// BriefingConfig contains briefing assembly settings
type BriefingConfig struct {
	CruiseSpeedKts float64 `toml:"cruise_speed_kts"` // Speed used for the estimated time enroute
	HistoryLimit   int     `toml:"history_limit"`    // Maximum briefings returned by the history endpoint
	TimeoutSeconds int     `toml:"timeout_seconds"`  // Deadline for assembling one briefing
}

// Load loads the configuration from the specified file
func Load(path string) (*Config, error) {
	var config Config

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback attempts to load configuration from multiple locations
// in order of preference, returning the first one found
func LoadWithFallback(preferredPath string) (*Config, error) {
	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			// File exists, try to load it
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration and fills in defaults for unset values
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.ReadTimeoutSecs < 0 || c.Server.WriteTimeoutSecs < 0 || c.Server.IdleTimeoutSecs < 0 {
		return fmt.Errorf("server timeouts must be 0 or greater")
	}
	if c.Server.RequestTimeoutSecs <= 0 {
		c.Server.RequestTimeoutSecs = 30
	}

	if err := c.ValidateLogging(); err != nil {
		return err
	}

	// Validate storage config
	if c.Storage.Type == "" {
		c.Storage.Type = "sqlite"
	}
	if c.Storage.Type != "sqlite" {
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/preflight.db"
	}

	if err := c.ValidateAirports(); err != nil {
		return err
	}

	if err := c.ValidateWeather(); err != nil {
		return err
	}

	// Validate resolver config
	if c.Resolver.DebounceMs < 0 {
		return fmt.Errorf("resolver debounce_ms must be 0 or greater: %d", c.Resolver.DebounceMs)
	}
	if c.Resolver.DebounceMs == 0 {
		c.Resolver.DebounceMs = 300
	}
	if c.Resolver.MinChars <= 0 {
		c.Resolver.MinChars = 1
	}

	// Validate briefing config
	if c.Briefing.CruiseSpeedKts < 0 {
		return fmt.Errorf("briefing cruise_speed_kts must be greater than 0: %f", c.Briefing.CruiseSpeedKts)
	}
	if c.Briefing.CruiseSpeedKts == 0 {
		c.Briefing.CruiseSpeedKts = 120
	}
	if c.Briefing.HistoryLimit <= 0 {
		c.Briefing.HistoryLimit = 50
	}
	if c.Briefing.TimeoutSeconds <= 0 {
		c.Briefing.TimeoutSeconds = 20
	}

	return nil
}

// ValidateLogging validates the logging configuration
func (c *Config) ValidateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "":
		c.Logging.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "":
		c.Logging.Format = "console"
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Logging.File != "" {
		if c.Logging.MaxSizeMB <= 0 {
			c.Logging.MaxSizeMB = 64
		}
		if c.Logging.MaxAgeDays <= 0 {
			c.Logging.MaxAgeDays = 14
		}
	}

	return nil
}

// ValidateAirports validates the airport catalog configuration
func (c *Config) ValidateAirports() error {
	if c.Airports.AirportsDBPath == "" {
		return fmt.Errorf("airports_db_path is required")
	}
	if c.Airports.RunwaysDBPath == "" {
		return fmt.Errorf("runways_db_path is required")
	}
	if c.Airports.RefreshAfterDays < 0 {
		return fmt.Errorf("airports refresh_after_days must be 0 or greater: %d", c.Airports.RefreshAfterDays)
	}
	if c.Airports.RefreshAfterDays == 0 {
		c.Airports.RefreshAfterDays = 30
	}
	if c.Airports.SearchLimit <= 0 {
		c.Airports.SearchLimit = 20
	}
	return nil
}

// ValidateWeather validates the weather configuration
func (c *Config) ValidateWeather() error {
	// Validate request timeout
	if c.Weather.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("weather request_timeout_seconds must be greater than 0: %d", c.Weather.RequestTimeoutSeconds)
	}

	// Validate max retries
	if c.Weather.MaxRetries < 0 {
		return fmt.Errorf("weather max_retries must be 0 or greater: %d", c.Weather.MaxRetries)
	}

	// Validate cache expiry
	if c.Weather.CacheExpiryMinutes <= 0 {
		return fmt.Errorf("weather cache_expiry_minutes must be greater than 0: %d", c.Weather.CacheExpiryMinutes)
	}
	if c.Weather.CacheSize <= 0 {
		c.Weather.CacheSize = 256
	}

	// Validate API base URL
	if c.Weather.APIBaseURL == "" {
		return fmt.Errorf("weather api_base_url cannot be empty")
	}
	c.Weather.APIBaseURL = strings.TrimRight(c.Weather.APIBaseURL, "/")

	if c.Weather.FetchNOTAMs && c.Weather.NOTAMsBaseURL == "" {
		return fmt.Errorf("weather notams_api_base_url is required when fetch_notams is enabled")
	}
	c.Weather.NOTAMsBaseURL = strings.TrimRight(c.Weather.NOTAMsBaseURL, "/")

	// At least one weather type must be enabled
	if !c.Weather.FetchMETAR && !c.Weather.FetchTAF && !c.Weather.FetchNOTAMs {
		return fmt.Errorf("at least one weather type must be enabled (fetch_metar, fetch_taf, or fetch_notams)")
	}

	if c.Weather.FetchSIGMETs && c.Weather.SIGMETRefreshIntervalMinutes <= 0 {
		c.Weather.SIGMETRefreshIntervalMinutes = 15
	}

	return nil
}
