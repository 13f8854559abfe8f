package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yegors/preflight/internal/briefing"
	"github.com/yegors/preflight/internal/preferences"
	"github.com/yegors/preflight/internal/storage/sqlite"
	"github.com/yegors/preflight/pkg/logger"
)

// APIError is a non-2xx response from the server
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

// Client talks to the preflight HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// New creates an API client for the server at baseURL
func New(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.Named("api-client"),
	}
}

// SearchAirports returns the codes starting with prefix
func (c *Client) SearchAirports(ctx context.Context, prefix string) ([]string, error) {
	q := url.Values{"q": {prefix}}

	codes := []string{}
	if err := c.get(ctx, "/api/airports", q, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// GetBriefing requests a briefing for the route evaluated against prefs
func (c *Client) GetBriefing(ctx context.Context, departure, destination string, prefs preferences.PilotPreferences) (*briefing.Briefing, error) {
	encoded, err := prefs.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode preferences: %w", err)
	}

	q := url.Values{
		"departure":         {departure},
		"destination":       {destination},
		"pilot_preferences": {string(encoded)},
	}

	var b briefing.Briefing
	if err := c.get(ctx, "/api/briefing", q, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// RecentBriefings returns the newest briefing summaries
func (c *Client) RecentBriefings(ctx context.Context, limit int) ([]*sqlite.BriefingRecord, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var records []*sqlite.BriefingRecord
	if err := c.get(ctx, "/api/briefings/recent", q, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, target any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("API request completed",
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var body struct {
			Detail string `json:"detail"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) == nil {
			apiErr.Detail = body.Detail
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("error decoding response from %s: %w", path, err)
	}
	return nil
}
