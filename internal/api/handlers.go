package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/yegors/preflight/internal/briefing"
	"github.com/yegors/preflight/internal/config"
	"github.com/yegors/preflight/internal/preferences"
	"github.com/yegors/preflight/internal/storage/sqlite"
	"github.com/yegors/preflight/pkg/logger"
)

// defaultRecentLimit is used when /api/briefings/recent has no limit
const defaultRecentLimit = 10

// AirportCatalog is the part of the airport store the API needs
type AirportCatalog interface {
	Search(ctx context.Context, prefix string, limit int) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// BriefingBuilder assembles briefings
type BriefingBuilder interface {
	Build(ctx context.Context, departure, destination string, prefs preferences.PilotPreferences) (*briefing.Briefing, error)
}

// BriefingHistory lists served briefings
type BriefingHistory interface {
	RecentBriefings(ctx context.Context, limit int) ([]*sqlite.BriefingRecord, error)
	Count(ctx context.Context) (int, error)
}

// WeatherStatus reports the state of the weather service
type WeatherStatus interface {
	IsStarted() bool
	GetCacheStats() map[string]any
}

// SocketStatus reports live websocket connections
type SocketStatus interface {
	ClientCount() int
}

// Handler contains the API handlers
type Handler struct {
	catalog   AirportCatalog
	briefings BriefingBuilder
	history   BriefingHistory
	weather   WeatherStatus
	sockets   SocketStatus
	config    *config.Config
	logger    *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(catalog AirportCatalog, briefings BriefingBuilder, history BriefingHistory, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		catalog:   catalog,
		briefings: briefings,
		history:   history,
		config:    cfg,
		logger:    log.Named("api-handler"),
	}
}

// SetWeatherStatus adds the weather service state to health reports
func (h *Handler) SetWeatherStatus(weather WeatherStatus) {
	h.weather = weather
}

// SetSocketStatus adds the websocket client count to health reports
func (h *Handler) SetSocketStatus(sockets SocketStatus) {
	h.sockets = sockets
}

// errorResponse is the body of every non-2xx response
type errorResponse struct {
	Detail string `json:"detail"`
}

// GetAirports returns the ICAO codes starting with the q parameter
func (h *Handler) GetAirports(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		WriteJSON(w, http.StatusOK, []string{})
		return
	}

	codes, err := h.catalog.Search(r.Context(), query, h.config.Airports.SearchLimit)
	if err != nil {
		h.logger.Error("Airport search failed", logger.String("query", query), logger.Error(err))
		WriteError(w, http.StatusInternalServerError, "Failed to search airports")
		return
	}

	WriteJSON(w, http.StatusOK, codes)
}

// GetBriefing builds a go/no-go briefing for the requested route
func (h *Handler) GetBriefing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	departure := q.Get("departure")
	destination := q.Get("destination")

	prefs := preferences.Default()
	if raw := q.Get("pilot_preferences"); raw != "" {
		prefs = preferences.Load([]byte(raw))
	}

	b, err := h.briefings.Build(r.Context(), departure, destination, prefs)
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, b)
	case errors.Is(err, briefing.ErrInvalidCode):
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, briefing.ErrAirportNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("Failed to build briefing",
			logger.String("departure", departure),
			logger.String("destination", destination),
			logger.Error(err))
		WriteError(w, http.StatusInternalServerError, "Failed to build briefing")
	}
}

// GetRecentBriefings returns the most recent briefing summaries
func (h *Handler) GetRecentBriefings(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(w, http.StatusUnprocessableEntity, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if most := h.config.Briefing.HistoryLimit; most > 0 && limit > most {
		limit = most
	}

	records, err := h.history.RecentBriefings(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to load briefing history", logger.Error(err))
		WriteError(w, http.StatusInternalServerError, "Failed to load briefing history")
		return
	}

	WriteJSON(w, http.StatusOK, records)
}

// GetHealth returns the health status of the API
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"

	airports, err := h.catalog.Count(r.Context())
	if err != nil {
		h.logger.Warn("Health check could not count airports", logger.Error(err))
		status = "degraded"
	}
	served, err := h.history.Count(r.Context())
	if err != nil {
		h.logger.Warn("Health check could not count briefings", logger.Error(err))
		status = "degraded"
	}
	if airports == 0 {
		status = "degraded"
	}

	health := map[string]any{
		"airports":         airports,
		"briefings_served": served,
	}
	if h.weather != nil {
		started := h.weather.IsStarted()
		if !started {
			status = "degraded"
		}
		health["weather"] = map[string]any{
			"started": started,
			"cache":   h.weather.GetCacheStats(),
		}
	}
	if h.sockets != nil {
		health["websocket_clients"] = h.sockets.ClientCount()
	}
	health["status"] = status

	WriteJSON(w, http.StatusOK, health)
}

// GetConfig returns the public configuration clients need
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	publicConfig := map[string]any{
		"resolver": map[string]any{
			"debounce_ms": h.config.Resolver.DebounceMs,
			"min_chars":   h.config.Resolver.MinChars,
		},
		"airports": map[string]any{
			"search_limit": h.config.Airports.SearchLimit,
		},
		"briefing": map[string]any{
			"cruise_speed_kts": h.config.Briefing.CruiseSpeedKts,
		},
		"default_preferences": preferences.Default(),
	}

	WriteJSON(w, http.StatusOK, publicConfig)
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// WriteError writes a {"detail": ...} error response
func WriteError(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, errorResponse{Detail: detail})
}
