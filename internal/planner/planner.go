package planner

import (
	"context"
	"sync"

	"github.com/yegors/preflight/internal/briefing"
	"github.com/yegors/preflight/internal/preferences"
	"github.com/yegors/preflight/internal/resolver"
	"github.com/yegors/preflight/pkg/logger"
)

// Fetcher retrieves briefings
type Fetcher interface {
	GetBriefing(ctx context.Context, departure, destination string, prefs preferences.PilotPreferences) (*briefing.Briefing, error)
}

// PreferenceSource supplies the pilot's current preferences
type PreferenceSource interface {
	Load() preferences.PilotPreferences
}

// Option configures a Planner
type Option func(*Planner)

// WithAutoFetch requests a briefing as soon as both airports become valid
func WithAutoFetch(enabled bool) Option {
	return func(p *Planner) { p.autoFetch = enabled }
}

// WithListener registers a callback invoked after every state change
func WithListener(fn func(State)) Option {
	return func(p *Planner) { p.listener = fn }
}

// WithLogger sets the planner logger
func WithLogger(l *logger.Logger) Option {
	return func(p *Planner) { p.logger = l.Named("planner") }
}

// WithResolverOptions passes options to both airport resolvers
func WithResolverOptions(opts ...resolver.Option) Option {
	return func(p *Planner) { p.resolverOpts = append(p.resolverOpts, opts...) }
}

// Planner drives the state machine: it feeds resolver updates in as events
// and performs the briefing requests the transitions call for
type Planner struct {
	fetcher      Fetcher
	prefs        PreferenceSource
	autoFetch    bool
	listener     func(State)
	logger       *logger.Logger
	resolverOpts []resolver.Option

	departure   *resolver.Resolver
	destination *resolver.Resolver

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   State
	nextID  uint64
	changed chan struct{} // closed and replaced on every state change
}

// New creates a planner looking up airports with lookup and fetching
// briefings with fetcher
func New(lookup resolver.LookupFunc, fetcher Fetcher, prefs PreferenceSource, opts ...Option) *Planner {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Planner{
		fetcher: fetcher,
		prefs:   prefs,
		logger:  logger.NewNop(),
		ctx:     ctx,
		cancel:  cancel,
		state:   Initial(),
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.departure = p.newResolver(lookup, Departure)
	p.destination = p.newResolver(lookup, Destination)
	return p
}

func (p *Planner) newResolver(lookup resolver.LookupFunc, field Field) *resolver.Resolver {
	opts := append([]resolver.Option{resolver.WithLogger(p.logger)}, p.resolverOpts...)
	opts = append(opts, resolver.WithListener(func(s resolver.State) {
		p.apply(FieldChanged{Field: field, State: s})
	}))
	return resolver.New(lookup, opts...)
}

// SetDeparture records an edit of the departure field
func (p *Planner) SetDeparture(text string) {
	p.departure.Input(text)
}

// SetDestination records an edit of the destination field
func (p *Planner) SetDestination(text string) {
	p.destination.Input(text)
}

// Fetch requests a briefing for the current route. It reports false when the
// route is not ready.
func (p *Planner) Fetch() bool {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.mu.Unlock()

	s := p.apply(FetchRequested{ID: id})
	if s.Phase != Fetching || s.Request != id {
		return false
	}

	prefs := p.prefs.Load()
	dep, dest := s.Departure.Input, s.Destination.Input

	p.logger.Debug("Requesting briefing",
		logger.Uint64("request", id),
		logger.String("departure", dep),
		logger.String("destination", dest))

	go func() {
		b, err := p.fetcher.GetBriefing(p.ctx, dep, dest, prefs)
		if err != nil {
			p.logger.Warn("Briefing request failed", logger.Uint64("request", id), logger.Error(err))
			p.apply(FetchFailed{ID: id, Err: err.Error()})
			return
		}
		p.apply(FetchSucceeded{ID: id, Briefing: b})
	}()
	return true
}

// PreferencesChanged discards a briefing evaluated against old preferences
func (p *Planner) PreferencesChanged() {
	p.apply(PreferencesChanged{})
}

// Reset clears both fields and the briefing
func (p *Planner) Reset() {
	p.departure.Input("")
	p.destination.Input("")
	p.apply(Reset{})
}

// State returns the current state
func (p *Planner) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Wait blocks until cond holds for the current state or ctx ends
func (p *Planner) Wait(ctx context.Context, cond func(State) bool) (State, error) {
	for {
		p.mu.Lock()
		s, changed := p.state, p.changed
		p.mu.Unlock()

		if cond(s) {
			return s, nil
		}
		select {
		case <-ctx.Done():
			return s, ctx.Err()
		case <-changed:
		}
	}
}

// Close stops the resolvers and abandons any briefing in flight
func (p *Planner) Close() {
	p.departure.Close()
	p.destination.Close()
	p.cancel()
}

// apply runs one transition and performs its effects
func (p *Planner) apply(e Event) State {
	p.mu.Lock()
	prev := p.state
	p.state = Transition(prev, e)
	s := p.state
	close(p.changed)
	p.changed = make(chan struct{})
	p.mu.Unlock()

	if s.Phase != prev.Phase {
		p.logger.Debug("Planner phase changed",
			logger.String("from", prev.Phase.String()),
			logger.String("to", s.Phase.String()))
	}
	if p.listener != nil {
		p.listener(s)
	}

	if p.autoFetch && s.Phase == Ready && prev.Phase != Ready {
		p.Fetch()
	}
	return s
}
