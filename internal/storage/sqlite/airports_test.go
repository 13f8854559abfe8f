package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/preflight/pkg/logger"
)

const airportsCSV = `"id","ident","type","name","latitude_deg","longitude_deg","elevation_ft","continent","iso_country","iso_region","municipality"
3878,"KSFO","large_airport","San Francisco International Airport",37.61899948120117,-122.375,13,"NA","US","US-CA","San Francisco"
3880,"KSJC","large_airport","Norman Y. Mineta San Jose International Airport",37.362598,-121.929001,62,"NA","US","US-CA","San Jose"
3881,"KSQL","small_airport","San Carlos Airport",37.511901,-122.25,5,"NA","US","US-CA","San Carlos"
3882,"KSXX","closed","Closed Field",37.1,-122.1,10,"NA","US","US-CA",
3883,"00A","heliport","Total Rf Heliport",40.07,-74.93,11,"NA","US","US-PA","Bensalem"
3884,"KLAX","large_airport","Los Angeles International Airport",33.942501,-118.407997,125,"NA","US","US-CA","Los Angeles"
3885,"KBAD","small_airport","Broken Coordinates",abc,-118.4,125,"NA","US","US-CA",
`

const runwaysCSV = `"id","airport_ref","airport_ident","length_ft","width_ft","surface","lighted","closed","le_ident","le_latitude_deg","le_longitude_deg","le_elevation_ft","le_heading_degT","le_displaced_threshold_ft","he_ident","he_latitude_deg","he_longitude_deg","he_elevation_ft","he_heading_degT","he_displaced_threshold_ft"
1,3878,"KSFO",11870,200,"ASP",1,0,"10L",37.6,-122.4,10,117.9,,"28R",37.6,-122.3,13,297.9,
2,3878,"KSFO",7650,200,"ASP",1,0,"01R",37.6,-122.4,10,,,"19L",37.6,-122.3,13,,
3,3881,"KSQL",2621,75,"ASP",1,0,"12",37.5,-122.2,5,,,"30",37.5,-122.2,5,,
4,3882,"KSXX",2000,50,"TURF",0,1,"09",37.1,-122.1,10,,,"27",37.1,-122.1,10,,
`

func newTestAirportStorage(t *testing.T) (*AirportStorage, string, string) {
	t.Helper()
	dir := t.TempDir()

	airportsPath := filepath.Join(dir, "airports.csv")
	runwaysPath := filepath.Join(dir, "runways.csv")
	require.NoError(t, os.WriteFile(airportsPath, []byte(airportsCSV), 0o644))
	require.NoError(t, os.WriteFile(runwaysPath, []byte(runwaysCSV), 0o644))

	storage, err := NewAirportStorage(filepath.Join(dir, "db", "preflight.db"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	return storage, airportsPath, runwaysPath
}

func TestImportCSV(t *testing.T) {
	storage, airportsPath, runwaysPath := newTestAirportStorage(t)
	ctx := context.Background()

	count, err := storage.ImportCSV(ctx, airportsPath, runwaysPath)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	total, err := storage.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	// Importing again replaces rather than duplicates
	_, err = storage.ImportCSV(ctx, airportsPath, runwaysPath)
	require.NoError(t, err)
	airport, err := storage.Get(ctx, "KSFO")
	require.NoError(t, err)
	assert.Len(t, airport.Runways, 2)
}

func TestGetAirport(t *testing.T) {
	storage, airportsPath, runwaysPath := newTestAirportStorage(t)
	ctx := context.Background()
	_, err := storage.ImportCSV(ctx, airportsPath, runwaysPath)
	require.NoError(t, err)

	airport, err := storage.Get(ctx, "ksfo")
	require.NoError(t, err)
	assert.Equal(t, "KSFO", airport.ICAO)
	assert.Equal(t, "San Francisco International Airport", airport.Name)
	assert.Equal(t, 13, airport.ElevationFt)
	assert.Equal(t, "San Francisco", airport.Municipality)
	assert.InDelta(t, 37.619, airport.Latitude, 0.001)

	require.Len(t, airport.Runways, 2)
	longest := airport.Runways[0]
	assert.Equal(t, "10L", longest.LeIdent)
	assert.Equal(t, "28R", longest.HeIdent)
	assert.Equal(t, 11870, longest.LengthFt)
	assert.True(t, longest.Lighted)
	require.NotNil(t, longest.LeHeadingTrue)
	assert.InDelta(t, 117.9, *longest.LeHeadingTrue, 0.01)

	assert.Nil(t, airport.Runways[1].LeHeadingTrue)

	lax, err := storage.Get(ctx, "KLAX")
	require.NoError(t, err)
	assert.Empty(t, lax.Runways)
	assert.NotNil(t, lax.Runways)
}

func TestGetUnknownAirport(t *testing.T) {
	storage, airportsPath, runwaysPath := newTestAirportStorage(t)
	ctx := context.Background()
	_, err := storage.ImportCSV(ctx, airportsPath, runwaysPath)
	require.NoError(t, err)

	for _, code := range []string{"KSXX", "00A", "KBAD", "ZZZZ"} {
		_, err := storage.Get(ctx, code)
		assert.ErrorIs(t, err, ErrAirportNotFound, code)
	}
}

func TestSearch(t *testing.T) {
	storage, airportsPath, runwaysPath := newTestAirportStorage(t)
	ctx := context.Background()
	_, err := storage.ImportCSV(ctx, airportsPath, runwaysPath)
	require.NoError(t, err)

	codes, err := storage.Search(ctx, "ks", 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"KSFO", "KSJC", "KSQL"}, codes)

	codes, err = storage.Search(ctx, "K", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"KLAX", "KSFO"}, codes)

	codes, err = storage.Search(ctx, "KSFO", 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"KSFO"}, codes)

	for _, prefix := range []string{"", "  ", "K%", "K_", "KSFOX", "EGLL"} {
		codes, err := storage.Search(ctx, prefix, 20)
		require.NoError(t, err)
		assert.Empty(t, codes, prefix)
		assert.NotNil(t, codes, prefix)
	}
}

func TestEnsureCatalog(t *testing.T) {
	storage, airportsPath, runwaysPath := newTestAirportStorage(t)
	ctx := context.Background()

	needed, err := storage.NeedsImport(ctx, time.Hour)
	require.NoError(t, err)
	assert.True(t, needed)

	require.NoError(t, storage.EnsureCatalog(ctx, airportsPath, runwaysPath, time.Hour))

	needed, err = storage.NeedsImport(ctx, time.Hour)
	require.NoError(t, err)
	assert.False(t, needed)

	importedAt, err := storage.ImportedAt(ctx)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), importedAt, time.Minute)

	// A stale catalog whose source disappeared keeps the old data
	require.NoError(t, os.Remove(airportsPath))
	require.NoError(t, storage.EnsureCatalog(ctx, airportsPath, runwaysPath, -time.Second))
	count, err := storage.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestEnsureCatalogMissingSource(t *testing.T) {
	storage, _, runwaysPath := newTestAirportStorage(t)
	err := storage.EnsureCatalog(context.Background(), "/nonexistent/airports.csv", runwaysPath, time.Hour)
	assert.Error(t, err)
}

func TestImportCSVMissingColumns(t *testing.T) {
	storage, _, runwaysPath := newTestAirportStorage(t)
	bad := filepath.Join(t.TempDir(), "airports.csv")
	require.NoError(t, os.WriteFile(bad, []byte("id,name\n1,Nowhere\n"), 0o644))

	_, err := storage.ImportCSV(context.Background(), bad, runwaysPath)
	assert.ErrorContains(t, err, "missing column")
}

func TestIsAirportCode(t *testing.T) {
	assert.True(t, IsAirportCode("KSFO"))
	assert.True(t, IsAirportCode("K0Q5"))
	assert.False(t, IsAirportCode("ksfo"))
	assert.False(t, IsAirportCode("SFO"))
	assert.False(t, IsAirportCode("KSF-"))
}
