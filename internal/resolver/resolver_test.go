package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelay = 20 * time.Millisecond

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) listen(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) last() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return State{}
	}
	return r.states[len(r.states)-1]
}

type lookupCalls struct {
	mu       sync.Mutex
	prefixes []string
}

func (l *lookupCalls) record(prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prefixes = append(l.prefixes, prefix)
}

func (l *lookupCalls) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.prefixes...)
}

func staticLookup(calls *lookupCalls, codes ...string) LookupFunc {
	return func(_ context.Context, prefix string) ([]string, error) {
		calls.record(prefix)
		var out []string
		for _, c := range codes {
			if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
				out = append(out, c)
			}
		}
		return out, nil
	}
}

func TestIsValid(t *testing.T) {
	candidates := []string{"KSFO", "KSJC", "KSQL"}
	assert.True(t, IsValid("KSFO", candidates))
	assert.False(t, IsValid("KSF", candidates))
	assert.False(t, IsValid("KLAX", candidates))
	assert.False(t, IsValid("KSFO", nil))
	assert.False(t, IsValid("ksfo", candidates))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "KSFO", Normalize("  ksfo "))
}

func TestDebounceIssuesSingleLookup(t *testing.T) {
	calls := &lookupCalls{}
	rec := &recorder{}
	r := New(staticLookup(calls, "KSFO", "KSJC"), WithDelay(testDelay), WithListener(rec.listen))
	defer r.Close()

	r.Input("k")
	r.Input("ks")
	r.Input("ksf")

	require.Eventually(t, func() bool { return !r.State().Pending }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"KSF"}, calls.get())
	assert.Equal(t, State{Input: "KSF", Candidates: []string{"KSFO"}, Valid: false, Pending: false}, r.State())
	assert.Equal(t, r.State(), rec.last())
}

func TestInputRecomputesValidityImmediately(t *testing.T) {
	calls := &lookupCalls{}
	r := New(staticLookup(calls, "KSFO", "KSFX"), WithDelay(testDelay))
	defer r.Close()

	r.Input("KSF")
	require.Eventually(t, func() bool { return !r.State().Pending }, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"KSFO", "KSFX"}, r.State().Candidates)

	// Valid straight away against the previous candidate set
	r.Input("ksfo")
	s := r.State()
	assert.True(t, s.Valid)
	assert.True(t, s.Pending)

	r.Input("KSFQ")
	assert.False(t, r.State().Valid)
}

func TestEmptyInputShortCircuits(t *testing.T) {
	calls := &lookupCalls{}
	r := New(staticLookup(calls, "KSFO"), WithDelay(testDelay))
	defer r.Close()

	r.Input("KS")
	require.Eventually(t, func() bool { return !r.State().Pending }, time.Second, 5*time.Millisecond)
	require.NotEmpty(t, r.State().Candidates)

	r.Input("   ")
	s := r.State()
	assert.Equal(t, "", s.Input)
	assert.Empty(t, s.Candidates)
	assert.False(t, s.Pending)
	assert.False(t, s.Valid)

	time.Sleep(3 * testDelay)
	assert.Equal(t, []string{"KS"}, calls.get())
}

func TestMinChars(t *testing.T) {
	calls := &lookupCalls{}
	r := New(staticLookup(calls, "KSFO"), WithDelay(testDelay), WithMinChars(2))
	defer r.Close()

	r.Input("K")
	assert.False(t, r.State().Pending)
	time.Sleep(3 * testDelay)
	assert.Empty(t, calls.get())
}

func TestStaleInFlightResultIsDropped(t *testing.T) {
	releaseOld := make(chan struct{})
	oldStarted := make(chan struct{})
	var once sync.Once

	lookup := func(ctx context.Context, prefix string) ([]string, error) {
		if prefix == "KS" {
			once.Do(func() { close(oldStarted) })
			<-releaseOld
			return []string{"KSFO", "KSJC"}, nil
		}
		return []string{"KLAX"}, nil
	}

	r := New(lookup, WithDelay(testDelay))
	defer r.Close()

	r.Input("KS")
	<-oldStarted

	// A newer edit supersedes the in-flight lookup
	r.Input("KLAX")
	require.Eventually(t, func() bool { return !r.State().Pending }, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"KLAX"}, r.State().Candidates)
	require.True(t, r.State().Valid)

	close(releaseOld)
	time.Sleep(3 * testDelay)

	assert.Equal(t, State{Input: "KLAX", Candidates: []string{"KLAX"}, Valid: true}, r.State())
}

func TestLookupFailureYieldsEmptyCandidates(t *testing.T) {
	lookup := func(context.Context, string) ([]string, error) {
		return nil, errors.New("connection refused")
	}
	r := New(lookup, WithDelay(testDelay))
	defer r.Close()

	r.Input("KSFO")
	require.Eventually(t, func() bool { return !r.State().Pending }, time.Second, 5*time.Millisecond)

	s := r.State()
	assert.Empty(t, s.Candidates)
	assert.False(t, s.Valid)
}

func TestCandidatesAreNormalized(t *testing.T) {
	lookup := func(context.Context, string) ([]string, error) {
		return []string{"ksfo", "KSFO", " ksjc", ""}, nil
	}
	r := New(lookup, WithDelay(testDelay))
	defer r.Close()

	r.Input("ks")
	require.Eventually(t, func() bool { return !r.State().Pending }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"KSFO", "KSJC"}, r.State().Candidates)
}

func TestCloseDropsPendingLookup(t *testing.T) {
	calls := &lookupCalls{}
	r := New(staticLookup(calls, "KSFO"), WithDelay(testDelay))

	r.Input("KSFO")
	r.Close()
	time.Sleep(3 * testDelay)

	assert.Empty(t, calls.get())
	assert.False(t, r.State().Pending)

	// Edits after close are ignored
	r.Input("KLAX")
	assert.Equal(t, "KSFO", r.State().Input)
}

func TestListenerNeverEndsOnStaleState(t *testing.T) {
	rec := &recorder{}
	slowStarted := make(chan struct{})
	var once sync.Once

	listener := func(s State) {
		if len(s.Candidates) > 0 {
			// Hold up delivery of the lookup result on the timer goroutine
			once.Do(func() { close(slowStarted) })
			time.Sleep(50 * time.Millisecond)
		}
		rec.listen(s)
	}

	calls := &lookupCalls{}
	r := New(staticLookup(calls, "KSFO", "KSJC"), WithDelay(testDelay), WithListener(listener))
	defer r.Close()

	r.Input("KS")
	select {
	case <-slowStarted:
	case <-time.After(time.Second):
		t.Fatal("lookup result was never delivered")
	}

	r.Input("")
	time.Sleep(100 * time.Millisecond)

	want := State{Input: "", Candidates: []string{}}
	assert.Equal(t, want, r.State())
	assert.Equal(t, want, rec.last())
}

func TestListenerCallsDoNotOverlap(t *testing.T) {
	var mu sync.Mutex
	active, overlaps := 0, 0
	listener := func(State) {
		mu.Lock()
		active++
		if active > 1 {
			overlaps++
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
	}

	calls := &lookupCalls{}
	r := New(staticLookup(calls, "KSFO"), WithDelay(time.Millisecond), WithListener(listener))
	defer r.Close()

	for _, input := range []string{"K", "KS", "KSF", "KSFO", "KS", "K"} {
		r.Input(input)
		time.Sleep(2 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return !r.State().Pending }, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, overlaps)
}
