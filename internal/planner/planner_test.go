package planner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/preflight/internal/briefing"
	"github.com/yegors/preflight/internal/preferences"
	"github.com/yegors/preflight/internal/resolver"
)

var codes = []string{"KLAX", "KSFO", "KSJC", "KSQL"}

func lookup(_ context.Context, prefix string) ([]string, error) {
	out := []string{}
	for _, c := range codes {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	err   error
	prefs preferences.PilotPreferences
}

func (f *fakeFetcher) GetBriefing(_ context.Context, dep, dest string, prefs preferences.PilotPreferences) (*briefing.Briefing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dep+"-"+dest)
	f.prefs = prefs
	if f.err != nil {
		return nil, f.err
	}
	return &briefing.Briefing{ID: dep + "-" + dest, Route: briefing.Route{Departure: dep, Destination: dest}}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type staticPrefs struct{ prefs preferences.PilotPreferences }

func (s staticPrefs) Load() preferences.PilotPreferences { return s.prefs }

func newTestPlanner(t *testing.T, fetcher *fakeFetcher, opts ...Option) *Planner {
	t.Helper()
	opts = append(opts, WithResolverOptions(resolver.WithDelay(10*time.Millisecond)))
	p := New(lookup, fetcher, staticPrefs{preferences.Default()}, opts...)
	t.Cleanup(p.Close)
	return p
}

func waitPhase(t *testing.T, p *Planner, phase Phase) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := p.Wait(ctx, func(s State) bool { return s.Phase == phase })
	require.NoError(t, err, "waiting for %s, last phase %s", phase, s.Phase)
	return s
}

func TestPlannerManualFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	p := newTestPlanner(t, fetcher)

	assert.False(t, p.Fetch())

	p.SetDeparture("ksfo")
	p.SetDestination("klax")
	waitPhase(t, p, Ready)
	assert.Zero(t, fetcher.callCount())

	require.True(t, p.Fetch())
	s := waitPhase(t, p, Loaded)
	assert.Equal(t, "KSFO-KLAX", s.Briefing.ID)
	assert.Equal(t, preferences.Default(), fetcher.prefs)
}

func TestPlannerAutoFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	var mu sync.Mutex
	var phases []Phase
	p := newTestPlanner(t, fetcher, WithAutoFetch(true), WithListener(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		phases = append(phases, s.Phase)
	}))

	p.SetDeparture("KSFO")
	p.SetDestination("KLAX")
	s := waitPhase(t, p, Loaded)
	assert.Equal(t, "KSFO-KLAX", s.Briefing.ID)
	assert.Equal(t, 1, fetcher.callCount())

	mu.Lock()
	assert.Contains(t, phases, Fetching)
	mu.Unlock()

	// A preferences change refetches for the same route
	p.PreferencesChanged()
	waitPhase(t, p, Loaded)
	assert.Eventually(t, func() bool { return fetcher.callCount() == 2 }, time.Second, 5*time.Millisecond)
}

func TestPlannerFetchError(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("HTTP error! status: 500")}
	p := newTestPlanner(t, fetcher, WithAutoFetch(true))

	p.SetDeparture("KSFO")
	p.SetDestination("KSJC")
	s := waitPhase(t, p, Errored)
	assert.Equal(t, "HTTP error! status: 500", s.Err)
	assert.Nil(t, s.Briefing)
}

func TestPlannerInvalidCodeStaysIdle(t *testing.T) {
	fetcher := &fakeFetcher{}
	p := newTestPlanner(t, fetcher, WithAutoFetch(true))

	p.SetDeparture("KSFO")
	p.SetDestination("KZZZ")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := p.Wait(ctx, func(s State) bool { return !s.Destination.Pending && !s.Departure.Pending && s.Destination.Input == "KZZZ" })
	require.NoError(t, err)
	assert.Equal(t, Idle, s.Phase)
	assert.False(t, s.Destination.Valid)
	assert.Zero(t, fetcher.callCount())
}

func TestPlannerReset(t *testing.T) {
	p := newTestPlanner(t, &fakeFetcher{}, WithAutoFetch(true))

	p.SetDeparture("KSFO")
	p.SetDestination("KLAX")
	waitPhase(t, p, Loaded)

	p.Reset()
	s := p.State()
	assert.Equal(t, Idle, s.Phase)
	assert.Empty(t, s.Departure.Input)
	assert.Empty(t, s.Destination.Input)
}

func TestPlannerWaitHonoursContext(t *testing.T) {
	p := newTestPlanner(t, &fakeFetcher{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Wait(ctx, func(s State) bool { return s.Phase == Loaded })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
