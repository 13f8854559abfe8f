package preferences

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadEmptyReturnsDefaults(t *testing.T) {
	for _, stored := range []string{"", "   ", "null", "{}"} {
		assert.Equal(t, Default(), Load([]byte(stored)), "stored %q", stored)
	}
}

func TestLoadMalformedReturnsDefaults(t *testing.T) {
	for _, stored := range []string{
		"{not json",
		"[1,2,3]",
		`"VFR"`,
		`{"day_minimums": {"ceiling_ft": "low"}}`,
		`{"ratings": "PRIVATE"}`,
	} {
		assert.Equal(t, Default(), Load([]byte(stored)), "stored %q", stored)
	}
}

func TestLoadMergesNestedMinima(t *testing.T) {
	prefs := Load([]byte(`{"day_minimums": {"ceiling_ft": 1000}}`))

	expected := Default()
	expected.DayMinimums.CeilingFt = 1000
	assert.Equal(t, expected, prefs)
	assert.Equal(t, 5.0, prefs.DayMinimums.VisibilitySM)
	assert.Equal(t, 20.0, prefs.DayMinimums.WindSpeedKts)
	assert.Equal(t, 10.0, prefs.DayMinimums.CrosswindComponentKts)
}

func TestLoadInvalidFieldsFallBackIndividually(t *testing.T) {
	prefs := Load([]byte(`{
		"flight_rules": "SVFR",
		"ratings": ["instrument", "bogus", "PRIVATE", "INSTRUMENT"],
		"day_minimums": {"visibility_sm": -1, "wind_speed_kts": 25},
		"night_minimums": {"crosswind_component_kts": 5}
	}`))

	assert.Equal(t, VFR, prefs.FlightRules)
	assert.Equal(t, []string{RatingInstrument, RatingPrivate}, prefs.Ratings)
	assert.Equal(t, 5.0, prefs.DayMinimums.VisibilitySM)
	assert.Equal(t, 25.0, prefs.DayMinimums.WindSpeedKts)
	assert.Equal(t, 5.0, prefs.NightMinimums.CrosswindComponentKts)
	assert.Equal(t, 4000.0, prefs.NightMinimums.CeilingFt)
}

func TestLoadFlightRulesCaseInsensitive(t *testing.T) {
	assert.Equal(t, IFR, Load([]byte(`{"flight_rules": "ifr"}`)).FlightRules)
}

func TestLoadLegacyCrosswind(t *testing.T) {
	prefs := Load([]byte(`{"crosswind": "15", "homeBase": "KPAO", "speed": "110"}`))
	assert.Equal(t, 15.0, prefs.DayMinimums.CrosswindComponentKts)
	assert.Equal(t, 15.0, prefs.NightMinimums.CrosswindComponentKts)

	// Explicit minima win over the legacy value
	prefs = Load([]byte(`{"crosswind": 12, "night_minimums": {"crosswind_component_kts": 7}}`))
	assert.Equal(t, 12.0, prefs.DayMinimums.CrosswindComponentKts)
	assert.Equal(t, 7.0, prefs.NightMinimums.CrosswindComponentKts)

	prefs = Load([]byte(`{"crosswind": "gusty"}`))
	assert.Equal(t, Default(), prefs)

	prefs = Load([]byte(`{"crosswind": null}`))
	assert.Equal(t, Default(), prefs)
}

func TestLoadIsTotal(t *testing.T) {
	inputs := []string{`{"ratings": null}`, `{"day_minimums": null}`, `{"ratings": []}`, `{"flight_rules": null}`}
	for _, in := range inputs {
		prefs := Load([]byte(in))
		assert.Contains(t, []FlightRules{VFR, IFR}, prefs.FlightRules)
		assert.GreaterOrEqual(t, prefs.DayMinimums.VisibilitySM, 0.0)
		assert.GreaterOrEqual(t, prefs.NightMinimums.CeilingFt, 0.0)
	}

	assert.Empty(t, Load([]byte(`{"ratings": []}`)).Ratings)
}

func TestEncodeRoundTrip(t *testing.T) {
	prefs := Default()
	prefs.FlightRules = IFR
	prefs.Ratings = []string{RatingCommercial, RatingInstrument}
	prefs.NightMinimums.CeilingFt = 2500

	raw, err := prefs.Encode()
	assert.NoError(t, err)
	assert.Equal(t, prefs, Load(raw))
}

func TestDefaultReturnsIndependentCopies(t *testing.T) {
	a := Default()
	a.Ratings[0] = "MUTATED"
	a.DayMinimums.CeilingFt = 1

	b := Default()
	assert.Equal(t, []string{RatingPrivate}, b.Ratings)
	assert.Equal(t, 3000.0, b.DayMinimums.CeilingFt)
}

func TestMinimaFor(t *testing.T) {
	prefs := Default()
	assert.Equal(t, prefs.DayMinimums, prefs.MinimaFor(true))
	assert.Equal(t, prefs.NightMinimums, prefs.MinimaFor(false))
}
