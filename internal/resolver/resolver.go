package resolver

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/yegors/preflight/pkg/logger"
)

// DefaultDelay is how long input must be stable before a lookup is issued
const DefaultDelay = 300 * time.Millisecond

// CodeLength is the length of a complete ICAO airport code
const CodeLength = 4

// LookupFunc returns airport codes starting with prefix
type LookupFunc func(ctx context.Context, prefix string) ([]string, error)

// State is a snapshot of the resolver
type State struct {
	Input      string   `json:"input"`
	Candidates []string `json:"candidates"`
	Valid      bool     `json:"valid"`
	Pending    bool     `json:"pending"` // a lookup is scheduled or in flight
}

// Option configures a Resolver
type Option func(*Resolver)

// WithDelay sets the debounce delay
func WithDelay(d time.Duration) Option {
	return func(r *Resolver) { r.delay = d }
}

// WithMinChars sets the shortest input that triggers a lookup
func WithMinChars(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.minChars = n
		}
	}
}

// WithListener registers a callback invoked after every state change. It may
// be called from a timer goroutine. Calls never overlap and a state older
// than one already delivered is skipped, so the last call always carries
// the current state. The callback must not call Input.
func WithListener(fn func(State)) Option {
	return func(r *Resolver) { r.listener = fn }
}

// WithLogger sets the logger used for lookup failures
func WithLogger(l *logger.Logger) Option {
	return func(r *Resolver) { r.logger = l.Named("resolver") }
}

// Resolver turns free-form airport input into a validated code. Lookups are
// debounced and only the result of the most recently issued lookup is
// applied; older results are dropped on arrival.
type Resolver struct {
	lookup   LookupFunc
	delay    time.Duration
	minChars int
	listener func(State)
	logger   *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   State
	timer   *time.Timer
	seq     uint64
	version uint64 // bumped on every state change
	closed  bool

	notifyMu  sync.Mutex
	delivered uint64 // version of the last state passed to the listener
}

// New creates a resolver backed by lookup
func New(lookup LookupFunc, opts ...Option) *Resolver {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Resolver{
		lookup:   lookup,
		delay:    DefaultDelay,
		minChars: 1,
		logger:   logger.NewNop(),
		ctx:      ctx,
		cancel:   cancel,
		state:    State{Candidates: []string{}},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Normalize uppercases and trims airport input
func Normalize(input string) string {
	return strings.ToUpper(strings.TrimSpace(input))
}

// IsValid reports whether code is a complete code present in candidates
func IsValid(code string, candidates []string) bool {
	return len(code) == CodeLength && slices.Contains(candidates, code)
}

// Input records an edit. Validity is recomputed immediately against the
// current candidates and any scheduled lookup is replaced by a new one.
func (r *Resolver) Input(text string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}

	input := Normalize(text)
	r.state.Input = input
	r.seq++
	id := r.seq

	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}

	if len(input) < r.minChars {
		r.state.Candidates = []string{}
		r.state.Pending = false
	} else {
		r.state.Pending = true
		r.timer = time.AfterFunc(r.delay, func() { r.run(id, input) })
	}

	r.state.Valid = IsValid(input, r.state.Candidates)
	r.version++
	version, snapshot := r.version, r.snapshot()
	r.mu.Unlock()

	r.notify(version, snapshot)
}

// State returns the current state
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Close cancels any scheduled or in-flight lookup. Later results are dropped.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.seq++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.state.Pending = false
	r.cancel()
}

func (r *Resolver) run(id uint64, prefix string) {
	r.mu.Lock()
	if id != r.seq {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	candidates, err := r.lookup(r.ctx, prefix)
	if err != nil {
		r.logger.Warn("Airport lookup failed",
			logger.String("prefix", prefix),
			logger.Error(err))
		candidates = nil
	}

	normalized := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c = Normalize(c); c != "" && !slices.Contains(normalized, c) {
			normalized = append(normalized, c)
		}
	}

	r.mu.Lock()
	if id != r.seq {
		r.mu.Unlock()
		r.logger.Debug("Dropping stale lookup result",
			logger.String("prefix", prefix),
			logger.Uint64("request", id))
		return
	}
	r.state.Candidates = normalized
	r.state.Pending = false
	r.state.Valid = IsValid(r.state.Input, r.state.Candidates)
	r.version++
	version, snapshot := r.version, r.snapshot()
	r.mu.Unlock()

	r.notify(version, snapshot)
}

func (r *Resolver) snapshot() State {
	s := r.state
	s.Candidates = slices.Clone(r.state.Candidates)
	if s.Candidates == nil {
		s.Candidates = []string{}
	}
	return s
}

func (r *Resolver) notify(version uint64, s State) {
	if r.listener == nil {
		return
	}

	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	if version <= r.delivered {
		return
	}
	r.delivered = version
	r.listener(s)
}
