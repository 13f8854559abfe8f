package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReportWind(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		dir   *int
		speed *float64
		gust  *float64
	}{
		{"steady", "KSFO 201756Z 28015KT 10SM FEW020 18/12 A3001", ptr(280), ptr(15.0), nil},
		{"gusting", "KSFO 201756Z 28015G25KT 10SM CLR 18/12 A3001", ptr(280), ptr(15.0), ptr(25.0)},
		{"variable", "KPAO 201756Z VRB03KT 10SM CLR 18/12 A3001", nil, ptr(3.0), nil},
		{"calm", "KPAO 201756Z 00000KT 10SM CLR 18/12 A3001", ptr(0), ptr(0.0), nil},
		{"three digit speed", "KMWN 201756Z 290105G130KT 1/4SM FG VV001", ptr(290), ptr(105.0), ptr(130.0)},
		{"missing", "KSFO 201756Z 10SM CLR 18/12 A3001", nil, nil, nil},
		{"malformed", "KSFO 201756Z 2801KT 10SM CLR", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseReport(tt.raw)
			assert.Equal(t, tt.dir, p.WindDirectionDeg)
			assert.Equal(t, tt.speed, p.WindSpeedKts)
			assert.Equal(t, tt.gust, p.WindGustKts)
		})
	}
}

func TestParseReportVisibility(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *float64
	}{
		{"whole", "KSFO 201756Z 28015KT 10SM CLR", ptr(10.0)},
		{"fraction", "KSFO 201756Z 28015KT 1/2SM FG OVC002", ptr(0.5)},
		{"mixed", "KSFO 201756Z 28015KT 1 1/2SM BR OVC004", ptr(1.5)},
		{"less than", "KSFO 201756Z 28015KT M1/4SM FG VV001", ptr(0.0)},
		{"greater than", "TAF KSFO 201730Z 2018/2124 28015KT P6SM SKC", ptr(7.0)},
		{"cavok", "EGLL 201750Z 24010KT CAVOK 18/10 Q1015", ptr(10.0)},
		{"metric", "LFPG 201730Z 24010KT 4000 BR BKN008", ptr(2.49)},
		{"metric unlimited", "EDDF 201750Z 24010KT 200V270 9999 FEW040", ptr(10.0)},
		{"missing", "KSFO 201756Z 28015KT CLR", nil},
		{"malformed", "KSFO 201756Z 28015KT 1/0SM CLR", nil},
		{"station ending in SM", "KCSM 121756Z AUTO 18010KT 2SM BR OVC004 12/11 A3001", ptr(2.0)},
		{"station ending in SM with fraction", "LFSM 121756Z 18010KT 1 3/4SM BR BKN006", ptr(1.75)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseReport(tt.raw)
			if tt.want == nil {
				assert.Nil(t, p.VisibilitySM)
				return
			}
			require.NotNil(t, p.VisibilitySM)
			assert.InDelta(t, *tt.want, *p.VisibilitySM, 0.01)
		})
	}
}

func TestParseReportStationEndingInSM(t *testing.T) {
	p := ParseReport("KCSM 121756Z AUTO 18010KT 2SM BR OVC004 12/11 A3001")
	require.NotNil(t, p.VisibilitySM)
	assert.Equal(t, 2.0, *p.VisibilitySM)
	require.NotNil(t, p.CeilingFt)
	assert.Equal(t, 400.0, *p.CeilingFt)
	assert.Equal(t, CategoryLIFR, p.FlightCategory)
}

func TestParseReportCeiling(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"broken", "KSFO 201756Z 28015KT 10SM BKN015 OVC030", 1500},
		{"lowest wins", "KSFO 201756Z 28015KT 10SM OVC030 BKN008", 800},
		{"few and scattered ignored", "KSFO 201756Z 28015KT 10SM FEW005 SCT010", CeilingUnlimited},
		{"vertical visibility", "KSFO 201756Z 28015KT 1/4SM FG VV002", 200},
		{"cumulonimbus suffix", "KSFO 201756Z 28015KT 5SM TSRA BKN025CB", 2500},
		{"clear", "KSFO 201756Z 28015KT 10SM CLR", CeilingUnlimited},
		{"remarks ignored", "KSFO 201756Z 28015KT 10SM CLR RMK BKN005", CeilingUnlimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseReport(tt.raw)
			require.NotNil(t, p.CeilingFt)
			assert.Equal(t, tt.want, *p.CeilingFt)
		})
	}
}

func TestParseReportEmpty(t *testing.T) {
	p := ParseReport("   ")
	assert.Nil(t, p.WindSpeedKts)
	assert.Nil(t, p.VisibilitySM)
	assert.Nil(t, p.CeilingFt)
	assert.Nil(t, p.CrosswindComponentKts)
	assert.Equal(t, CategoryUnknown, p.FlightCategory)
}

func TestParseReportLowercase(t *testing.T) {
	p := ParseReport("ksfo 201756z 28015kt 3sm br bkn009")
	require.NotNil(t, p.WindSpeedKts)
	assert.Equal(t, 15.0, *p.WindSpeedKts)
	assert.Equal(t, CategoryIFR, p.FlightCategory)
}

func TestParseReportNeverPanics(t *testing.T) {
	inputs := []string{
		"SM", "M SM", "PSM", "/SM", "1/SM", "KT", "GKT", "BKN", "BKNXYZ", "VRBKT",
		"RMK", "12345678901234567890KT", "9999", "28015KT 999", "28015KT 180V",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { ParseReport(in) }, in)
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		ceiling, vis float64
		want         FlightCategory
	}{
		{CeilingUnlimited, 10, CategoryVFR},
		{3500, 6, CategoryVFR},
		{3000, 10, CategoryMVFR},
		{5000, 5, CategoryMVFR},
		{900, 10, CategoryIFR},
		{5000, 2, CategoryIFR},
		{400, 10, CategoryLIFR},
		{5000, 0.5, CategoryLIFR},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Category(ptr(tt.ceiling), ptr(tt.vis)), "ceiling %v vis %v", tt.ceiling, tt.vis)
	}

	assert.Equal(t, CategoryUnknown, Category(ptr(3000.0), nil))
	assert.Equal(t, CategoryUnknown, Category(nil, ptr(10.0)))
}
