package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yegors/preflight/internal/notam"
	"github.com/yegors/preflight/pkg/logger"
)

// ErrNoData is returned when the upstream has nothing for the airport
var ErrNoData = errors.New("no data available")

// Client handles HTTP requests to weather APIs
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new weather API client
func NewClient(config Config, log *logger.Logger) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.RequestTimeoutSeconds) * time.Second,
		},
		logger: log.Named("weather-client"),
	}
}

// FetchMETAR fetches the latest METAR for the specified airport
func (c *Client) FetchMETAR(ctx context.Context, airportCode string) (*METARResponse, error) {
	url := fmt.Sprintf("%s/metar?ids=%s&format=json", c.config.APIBaseURL, airportCode)

	var result []METARResponse // API returns an array
	if err := c.fetchWithRetry(ctx, url, WeatherTypeMETAR, airportCode, &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no METAR data found for %s: %w", airportCode, ErrNoData)
	}

	// Return the first (latest) observation
	return &result[0], nil
}

// FetchTAF fetches the current TAF for the specified airport
func (c *Client) FetchTAF(ctx context.Context, airportCode string) (*TAFResponse, error) {
	url := fmt.Sprintf("%s/taf?ids=%s&format=json", c.config.APIBaseURL, airportCode)

	var result []TAFResponse
	if err := c.fetchWithRetry(ctx, url, WeatherTypeTAF, airportCode, &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no TAF data found for %s: %w", airportCode, ErrNoData)
	}
	return &result[0], nil
}

// FetchNOTAMs fetches NOTAMs for the specified airport. No NOTAMs is not an error.
func (c *Client) FetchNOTAMs(ctx context.Context, airportCode string) ([]notam.Notam, error) {
	url := fmt.Sprintf("%s/%s", c.config.NOTAMsBaseURL, airportCode)

	var raw json.RawMessage
	err := c.fetchWithRetry(ctx, url, WeatherTypeNOTAMs, airportCode, &raw)
	if errors.Is(err, ErrNoData) {
		return []notam.Notam{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeNOTAMs(raw)
}

// FetchSIGMETs fetches all current SIGMETs and AIRMETs
func (c *Client) FetchSIGMETs(ctx context.Context) ([]SIGMETResponse, error) {
	url := fmt.Sprintf("%s/airsigmet?format=json", c.config.APIBaseURL)

	var result []SIGMETResponse
	err := c.fetchWithRetry(ctx, url, WeatherTypeSIGMETs, "", &result)
	if errors.Is(err, ErrNoData) {
		return []SIGMETResponse{}, nil
	}
	return result, err
}

// notamWire accepts the field names used by the NOTAM sources we have seen
type notamWire struct {
	Number             string `json:"number"`
	ID                 string `json:"id"`
	TraditionalMessage string `json:"traditional_message"`
	Text               string `json:"text"`
	ICAOMessage        string `json:"icao_message"`
}

// decodeNOTAMs accepts either a bare array or an object wrapping one
func decodeNOTAMs(raw json.RawMessage) ([]notam.Notam, error) {
	var items []notamWire
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapped struct {
			Items  []notamWire `json:"items"`
			NOTAMs []notamWire `json:"notams"`
			Data   []notamWire `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("error decoding NOTAM data: %w", err)
		}
		switch {
		case len(wrapped.Items) > 0:
			items = wrapped.Items
		case len(wrapped.NOTAMs) > 0:
			items = wrapped.NOTAMs
		default:
			items = wrapped.Data
		}
	}

	notams := make([]notam.Notam, 0, len(items))
	for _, item := range items {
		text := firstNonEmpty(item.TraditionalMessage, item.Text, item.ICAOMessage)
		if text == "" {
			continue
		}
		notams = append(notams, notam.Notam{
			ID:   firstNonEmpty(item.Number, item.ID),
			Text: text,
		})
	}
	return notams, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// fetchWithRetry performs HTTP request with retry logic and exponential backoff
func (c *Client) fetchWithRetry(ctx context.Context, url string, weatherType WeatherType, airportCode string, target any) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff between retries
			backoffDuration := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			c.logger.Info("Retrying weather data fetch",
				logger.String("type", string(weatherType)),
				logger.String("airport", airportCode),
				logger.Int("attempt", attempt),
				logger.Duration("backoff", backoffDuration))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffDuration):
			}
		}

		err := c.fetchOnce(ctx, url, target)
		if err == nil {
			if attempt > 0 {
				c.logger.Info("Successfully fetched weather data after retries",
					logger.String("type", string(weatherType)),
					logger.String("airport", airportCode),
					logger.Int("attempts_needed", attempt+1))
			}
			return nil
		}
		if errors.Is(err, ErrNoData) || ctx.Err() != nil {
			return err
		}

		lastErr = err
		c.logger.Warn("Weather API request failed, may retry",
			logger.String("type", string(weatherType)),
			logger.String("airport", airportCode),
			logger.Error(err),
			logger.Int("attempt", attempt+1),
			logger.Int("max_attempts", c.config.MaxRetries+1))
	}

	c.logger.Error("All attempts to fetch weather data failed",
		logger.String("type", string(weatherType)),
		logger.String("airport", airportCode),
		logger.Error(lastErr),
		logger.Int("max_attempts", c.config.MaxRetries+1))
	return lastErr
}

func (c *Client) fetchOnce(ctx context.Context, url string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating weather API request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request to weather API: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound:
		return ErrNoData
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("error decoding weather data: %w", err)
	}
	return nil
}

// FetchAll fetches all enabled per-airport data types concurrently
func (c *Client) FetchAll(ctx context.Context, airportCode string) []FetchResult {
	results := make(chan FetchResult, 3)
	var fetchCount int

	if c.config.FetchMETAR {
		fetchCount++
		go func() {
			data, err := c.FetchMETAR(ctx, airportCode)
			results <- FetchResult{Type: WeatherTypeMETAR, METAR: data, Err: err}
		}()
	}

	if c.config.FetchTAF {
		fetchCount++
		go func() {
			data, err := c.FetchTAF(ctx, airportCode)
			results <- FetchResult{Type: WeatherTypeTAF, TAF: data, Err: err}
		}()
	}

	if c.config.FetchNOTAMs {
		fetchCount++
		go func() {
			data, err := c.FetchNOTAMs(ctx, airportCode)
			results <- FetchResult{Type: WeatherTypeNOTAMs, NOTAMs: data, Err: err}
		}()
	}

	// Collect results
	fetchResults := make([]FetchResult, 0, fetchCount)
	for i := 0; i < fetchCount; i++ {
		fetchResults = append(fetchResults, <-results)
	}

	return fetchResults
}
