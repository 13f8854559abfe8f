package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yegors/preflight/internal/resolver"
	"github.com/yegors/preflight/internal/websocket"
	"github.com/yegors/preflight/pkg/logger"
)

// Airport fields a client can edit
const (
	FieldDeparture   = "departure"
	FieldDestination = "destination"
)

// AirportSearchHandler answers airport_query messages with debounced
// candidate lists. Each client gets one resolver per field.
type AirportSearchHandler struct {
	catalog  AirportCatalog
	limit    int
	delay    time.Duration
	minChars int
	logger   *logger.Logger

	mu        sync.Mutex
	resolvers map[*websocket.Client]map[string]*resolver.Resolver
}

// NewAirportSearchHandler creates the websocket airport search handler
func NewAirportSearchHandler(catalog AirportCatalog, limit int, delay time.Duration, minChars int, log *logger.Logger) *AirportSearchHandler {
	return &AirportSearchHandler{
		catalog:   catalog,
		limit:     limit,
		delay:     delay,
		minChars:  minChars,
		logger:    log.Named("airport-search"),
		resolvers: make(map[*websocket.Client]map[string]*resolver.Resolver),
	}
}

// HandleMessage implements websocket.MessageHandler
func (h *AirportSearchHandler) HandleMessage(client *websocket.Client, messageType string, data map[string]any) error {
	if messageType != websocket.MessageTypeAirportQuery {
		return fmt.Errorf("unsupported message type %q", messageType)
	}

	field, _ := data["field"].(string)
	if field != FieldDeparture && field != FieldDestination {
		return fmt.Errorf("unknown airport field %q", field)
	}
	input, ok := data["input"].(string)
	if !ok {
		return fmt.Errorf("airport query for %s has no input", field)
	}

	h.resolverFor(client, field).Input(input)
	return nil
}

// ClientClosed implements websocket.CloseHandler
func (h *AirportSearchHandler) ClientClosed(client *websocket.Client) {
	h.mu.Lock()
	fields := h.resolvers[client]
	delete(h.resolvers, client)
	h.mu.Unlock()

	for _, r := range fields {
		r.Close()
	}
}

// ActiveClients returns the number of clients with live resolvers
func (h *AirportSearchHandler) ActiveClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.resolvers)
}

func (h *AirportSearchHandler) resolverFor(client *websocket.Client, field string) *resolver.Resolver {
	h.mu.Lock()
	defer h.mu.Unlock()

	fields, ok := h.resolvers[client]
	if !ok {
		fields = make(map[string]*resolver.Resolver)
		h.resolvers[client] = fields
	}
	if r, ok := fields[field]; ok {
		return r
	}

	r := resolver.New(h.lookup,
		resolver.WithDelay(h.delay),
		resolver.WithMinChars(h.minChars),
		resolver.WithLogger(h.logger),
		resolver.WithListener(func(s resolver.State) {
			client.SendMessage(&websocket.Message{
				Type: websocket.MessageTypeAirportCandidates,
				Data: map[string]any{
					"field":      field,
					"input":      s.Input,
					"candidates": s.Candidates,
					"valid":      s.Valid,
					"pending":    s.Pending,
				},
			})
		}),
	)
	fields[field] = r
	return r
}

func (h *AirportSearchHandler) lookup(ctx context.Context, prefix string) ([]string, error) {
	return h.catalog.Search(ctx, prefix, h.limit)
}
