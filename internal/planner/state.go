package planner

import (
	"github.com/yegors/preflight/internal/briefing"
	"github.com/yegors/preflight/internal/resolver"
)

// Phase is the stage of the planning flow
type Phase int

const (
	Idle      Phase = iota // at least one airport is missing or invalid
	Resolving              // an airport lookup is scheduled or in flight
	Ready                  // both airports are valid, no briefing yet
	Fetching               // a briefing request is in flight
	Loaded                 // the briefing for the current route is available
	Errored                // the last briefing request failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Resolving:
		return "resolving"
	case Ready:
		return "ready"
	case Fetching:
		return "fetching"
	case Loaded:
		return "loaded"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// Field identifies one of the two airport inputs
type Field string

const (
	Departure   Field = "departure"
	Destination Field = "destination"
)

// State is a snapshot of the planning flow
type State struct {
	Phase       Phase
	Departure   resolver.State
	Destination resolver.State
	Briefing    *briefing.Briefing
	Err         string
	Request     uint64 // id of the latest accepted briefing request
}

// Event is anything that moves the flow
type Event interface {
	event()
}

// FieldChanged carries a new resolver state for one airport
type FieldChanged struct {
	Field Field
	State resolver.State
}

// FetchRequested starts briefing request ID
type FetchRequested struct{ ID uint64 }

// FetchSucceeded delivers the result of request ID
type FetchSucceeded struct {
	ID       uint64
	Briefing *briefing.Briefing
}

// FetchFailed reports that request ID failed
type FetchFailed struct {
	ID  uint64
	Err string
}

// PreferencesChanged invalidates any briefing evaluated against old preferences
type PreferencesChanged struct{}

// Reset clears both airports and the briefing
type Reset struct{}

func (FieldChanged) event()       {}
func (FetchRequested) event()     {}
func (FetchSucceeded) event()     {}
func (FetchFailed) event()        {}
func (PreferencesChanged) event() {}
func (Reset) event()              {}

// Initial returns the empty starting state
func Initial() State {
	return State{
		Phase:       Idle,
		Departure:   resolver.State{Candidates: []string{}},
		Destination: resolver.State{Candidates: []string{}},
	}
}

// RouteReady reports whether both airports are valid and settled
func (s State) RouteReady() bool {
	return s.Departure.Valid && s.Destination.Valid &&
		!s.Departure.Pending && !s.Destination.Pending
}

// Transition applies e to s. It has no side effects; results of requests
// that are no longer current are ignored.
func Transition(s State, e Event) State {
	switch e := e.(type) {
	case FieldChanged:
		var old resolver.State
		switch e.Field {
		case Departure:
			old, s.Departure = s.Departure, e.State
		case Destination:
			old, s.Destination = s.Destination, e.State
		default:
			return s
		}

		sameRoute := old.Input == e.State.Input && old.Valid == e.State.Valid
		if sameRoute && (s.Phase == Fetching || s.Phase == Loaded || s.Phase == Errored) {
			return s
		}
		return settle(s)

	case FetchRequested:
		if !s.RouteReady() || s.Phase == Idle || s.Phase == Resolving {
			return s
		}
		s.Phase = Fetching
		s.Request = e.ID
		s.Briefing = nil
		s.Err = ""
		return s

	case FetchSucceeded:
		if s.Phase != Fetching || e.ID != s.Request {
			return s
		}
		s.Phase = Loaded
		s.Briefing = e.Briefing
		return s

	case FetchFailed:
		if s.Phase != Fetching || e.ID != s.Request {
			return s
		}
		s.Phase = Errored
		s.Err = e.Err
		return s

	case PreferencesChanged:
		if s.Phase == Fetching || s.Phase == Loaded || s.Phase == Errored {
			return settle(s)
		}
		return s

	case Reset:
		next := Initial()
		next.Request = s.Request
		return next
	}

	return s
}

// settle drops any briefing and derives the phase from the airport inputs
func settle(s State) State {
	s.Briefing = nil
	s.Err = ""
	switch {
	case s.Departure.Pending || s.Destination.Pending:
		s.Phase = Resolving
	case s.Departure.Valid && s.Destination.Valid:
		s.Phase = Ready
	default:
		s.Phase = Idle
	}
	return s
}
