package recommend

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/preflight/internal/minima"
	"github.com/yegors/preflight/internal/notam"
	"github.com/yegors/preflight/internal/preferences"
)

func f(v float64) *float64 { return &v }

func classified(id, text string) ClassifiedNotam {
	n := notam.Notam{ID: id, Text: text}
	return ClassifiedNotam{Notam: n, Classification: notam.Classify(n)}
}

func TestAggregateAllClear(t *testing.T) {
	rec := Aggregate(Input{
		Departure: Airport{Notams: []ClassifiedNotam{classified("1", "OBST CRANE 200FT AGL")}},
	})

	assert.True(t, rec.IsGo)
	assert.Equal(t, []string{AllClear}, rec.Reasons)
	assert.Empty(t, rec.Caveats)
}

func TestAggregateWindViolation(t *testing.T) {
	rec := Aggregate(Input{
		Departure: Airport{Violations: []minima.Violation{{Dimension: minima.WindSpeed, Observed: 25, Limit: 20}}},
	})

	assert.False(t, rec.IsGo)
	assert.Equal(t, []string{"Departure airport winds are 25kts, which exceeds your maximum of 20kts"}, rec.Reasons)
}

func TestAggregateReasonTemplates(t *testing.T) {
	rec := Aggregate(Input{
		Destination: Airport{Violations: []minima.Violation{
			{Dimension: minima.Visibility, Observed: 1.5, Limit: 3},
			{Dimension: minima.Ceiling, Observed: 800, Limit: 1000},
			{Dimension: minima.WindSpeed, Observed: 22, Limit: 20, GustKts: f(31)},
			{Dimension: minima.Crosswind, Observed: 12.345, Limit: 10},
		}},
	})

	assert.False(t, rec.IsGo)
	assert.Equal(t, []string{
		"Destination airport visibility is 1.5SM, which is below your minimum of 3SM",
		"Destination airport ceiling is 800ft, which is below your minimum of 1000ft",
		"Destination airport winds are 22kts gusting to 31kts, which exceeds your maximum of 20kts",
		"Destination airport crosswind component is 12.3kts, which exceeds your maximum of 10kts",
	}, rec.Reasons)
}

func TestAggregateOrdering(t *testing.T) {
	rec := Aggregate(Input{
		Departure: Airport{
			Violations: []minima.Violation{{Dimension: minima.Ceiling, Observed: 500, Limit: 1000}},
		},
		Destination: Airport{
			Notams:     []ClassifiedNotam{classified("10/002", "RWY 10L/28R CLSD")},
			Violations: []minima.Violation{{Dimension: minima.Visibility, Observed: 2, Limit: 3}},
		},
		EnrouteWarnings: []string{"SIGMET ECHO 3 VALID UNTIL 2200Z SEV TURB"},
	})

	assert.False(t, rec.IsGo)
	assert.Equal(t, []string{
		"Destination airport has a closure NOTAM 10/002 (RWY 10L/28R): RWY 10L/28R CLSD",
		"Departure airport ceiling is 500ft, which is below your minimum of 1000ft",
		"Destination airport visibility is 2SM, which is below your minimum of 3SM",
		"SIGMET ECHO 3 VALID UNTIL 2200Z SEV TURB",
	}, rec.Reasons)
}

func TestAggregateOrdersViolationsByDimension(t *testing.T) {
	violations := []minima.Violation{
		{Dimension: minima.Crosswind, Observed: 15, Limit: 10},
		{Dimension: minima.Ceiling, Observed: 800, Limit: 1000},
		{Dimension: minima.Visibility, Observed: 2, Limit: 3},
	}
	rec := Aggregate(Input{Departure: Airport{Violations: violations}})

	assert.Equal(t, []string{
		"Departure airport visibility is 2SM, which is below your minimum of 3SM",
		"Departure airport ceiling is 800ft, which is below your minimum of 1000ft",
		"Departure airport crosswind component is 15kts, which exceeds your maximum of 10kts",
	}, rec.Reasons)
	assert.Equal(t, minima.Crosswind, violations[0].Dimension, "input must not be reordered")
}

func TestAggregateIsDeterministic(t *testing.T) {
	in := Input{
		Departure: Airport{
			Violations: []minima.Violation{
				{Dimension: minima.WindSpeed, Observed: 25, Limit: 20, GustKts: f(32)},
				{Dimension: minima.Visibility, Observed: 1, Limit: 3},
			},
			Unknown:    []minima.Dimension{minima.Crosswind},
			Conditions: Conditions{VisibilitySM: f(1), CeilingFt: f(400), Daytime: true},
		},
		Destination: Airport{
			Notams: []ClassifiedNotam{classified("10/002", "RWY 10L/28R CLSD")},
			Notes:  []string{"TAF could not be retrieved"},
		},
		EnrouteWarnings: []string{"SIGMET ECHO 3 VALID UNTIL 2200Z SEV TURB"},
		FlightRules:     preferences.VFR,
	}

	first, err := json.Marshal(Aggregate(in))
	require.NoError(t, err)
	second, err := json.Marshal(Aggregate(in))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestAggregateClosureAloneIsNoGo(t *testing.T) {
	rec := Aggregate(Input{
		Departure: Airport{Notams: []ClassifiedNotam{classified("", "AD CLSD")}},
	})

	assert.False(t, rec.IsGo)
	assert.Equal(t, []string{"Departure airport has a closure NOTAM (AD CLSD): AD CLSD"}, rec.Reasons)
}

func TestAggregateEnrouteWarningsDoNotChangeDecision(t *testing.T) {
	rec := Aggregate(Input{EnrouteWarnings: []string{"AIRMET SIERRA MTN OBSCN", "  "}})

	assert.True(t, rec.IsGo)
	assert.Equal(t, []string{"AIRMET SIERRA MTN OBSCN"}, rec.Reasons)
}

func TestAggregateCaveats(t *testing.T) {
	rec := Aggregate(Input{
		Departure:   Airport{Unknown: []minima.Dimension{minima.Crosswind}},
		Destination: Airport{Unknown: []minima.Dimension{minima.Visibility}, Notes: []string{"NOTAMs could not be retrieved"}},
	})

	assert.True(t, rec.IsGo)
	assert.Equal(t, []string{AllClear}, rec.Reasons)
	assert.Equal(t, []string{
		"Departure airport crosswind could not be determined and was not evaluated",
		"Destination airport visibility could not be determined and was not evaluated",
		"Destination airport NOTAMs could not be retrieved",
	}, rec.Caveats)
}

func TestAggregateReasonsNeverEmpty(t *testing.T) {
	inputs := []Input{
		{},
		{EnrouteWarnings: []string{""}},
		{Departure: Airport{Unknown: minima.Dimensions}},
	}
	for _, in := range inputs {
		rec := Aggregate(in)
		assert.NotEmpty(t, rec.Reasons)
		assert.True(t, rec.IsGo)
	}
}
