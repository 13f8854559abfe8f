package sqlite

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yegors/preflight/pkg/logger"
)

// ErrAirportNotFound is returned when a code is not in the catalog
var ErrAirportNotFound = errors.New("airport not found")

// RunwayRecord is one runway of an airport. Headings are true degrees and
// nil when the source does not list them.
type RunwayRecord struct {
	LeIdent       string   `json:"le_ident"`
	HeIdent       string   `json:"he_ident"`
	LengthFt      int      `json:"length_ft"`
	WidthFt       int      `json:"width_ft"`
	Surface       string   `json:"surface"`
	Lighted       bool     `json:"lighted"`
	Closed        bool     `json:"closed"`
	LeHeadingTrue *float64 `json:"le_heading_true,omitempty"`
	HeHeadingTrue *float64 `json:"he_heading_true,omitempty"`
}

// AirportRecord is an airport from the catalog
type AirportRecord struct {
	ICAO         string         `json:"icao"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	Latitude     float64        `json:"latitude"`
	Longitude    float64        `json:"longitude"`
	ElevationFt  int            `json:"elevation"`
	Municipality string         `json:"municipality,omitempty"`
	Country      string         `json:"country,omitempty"`
	Runways      []RunwayRecord `json:"runways"`
}

// AirportStorage holds the airport catalog imported from OurAirports CSVs
type AirportStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewAirportStorage opens (or creates) the database and the catalog tables
func NewAirportStorage(dbPath string, log *logger.Logger) (*AirportStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	// Set pragmas for better performance and concurrency
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	storage := &AirportStorage{
		db:     db,
		logger: storageLogger.Named("airports"),
	}

	if err := storage.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

// GetDB returns the underlying database so other stores can share it
func (s *AirportStorage) GetDB() *sql.DB {
	return s.db
}

// Close closes the database
func (s *AirportStorage) Close() error {
	return s.db.Close()
}

// initDB initializes the database tables
func (s *AirportStorage) initDB() error {
	statements := []struct {
		query string
		what  string
	}{
		{`CREATE TABLE IF NOT EXISTS airports (
			icao TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			elevation_ft INTEGER NOT NULL,
			municipality TEXT,
			country TEXT
		)`, "airports table"},
		{`CREATE TABLE IF NOT EXISTS runways (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			airport_icao TEXT NOT NULL REFERENCES airports(icao) ON DELETE CASCADE,
			le_ident TEXT,
			he_ident TEXT,
			length_ft INTEGER,
			width_ft INTEGER,
			surface TEXT,
			lighted BOOLEAN NOT NULL DEFAULT 0,
			closed BOOLEAN NOT NULL DEFAULT 0,
			le_heading_true REAL,
			he_heading_true REAL
		)`, "runways table"},
		{`CREATE INDEX IF NOT EXISTS idx_runways_airport ON runways(airport_icao)`, "runways airport index"},
		{`CREATE TABLE IF NOT EXISTS catalog_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`, "catalog_meta table"},
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt.query); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.what, err)
		}
	}
	return nil
}

// ImportedAt returns when the catalog was last imported, or the zero time
func (s *AirportStorage) ImportedAt(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM catalog_meta WHERE key = 'imported_at'`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read import time: %w", err)
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse import time: %w", err)
	}
	return t, nil
}

// NeedsImport reports whether the catalog is empty or older than maxAge
func (s *AirportStorage) NeedsImport(ctx context.Context, maxAge time.Duration) (bool, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	if count == 0 {
		return true, nil
	}

	importedAt, err := s.ImportedAt(ctx)
	if err != nil {
		return false, err
	}
	return importedAt.IsZero() || time.Since(importedAt) > maxAge, nil
}

// EnsureCatalog imports the CSVs when the catalog is missing or stale. A
// failed refresh of an existing catalog is logged and the old data kept.
func (s *AirportStorage) EnsureCatalog(ctx context.Context, airportsPath, runwaysPath string, maxAge time.Duration) error {
	needed, err := s.NeedsImport(ctx, maxAge)
	if err != nil {
		return err
	}
	if !needed {
		s.logger.Info("Airport catalog is fresh, skipping import")
		return nil
	}

	count, err := s.ImportCSV(ctx, airportsPath, runwaysPath)
	if err != nil {
		existing, countErr := s.Count(ctx)
		if countErr == nil && existing > 0 {
			s.logger.Warn("Failed to refresh airport catalog, keeping existing data",
				logger.Error(err),
				logger.Int("airports", existing))
			return nil
		}
		return err
	}

	s.logger.Info("Airport catalog imported", logger.Int("airports", count))
	return nil
}

// ImportCSV replaces the catalog with the contents of OurAirports
// airports.csv and runways.csv. Only airports with a four character code
// that are not closed are kept.
func (s *AirportStorage) ImportCSV(ctx context.Context, airportsPath, runwaysPath string) (int, error) {
	startTime := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runways`); err != nil {
		return 0, fmt.Errorf("failed to clear runways: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM airports`); err != nil {
		return 0, fmt.Errorf("failed to clear airports: %w", err)
	}

	airports, err := importAirports(ctx, tx, airportsPath)
	if err != nil {
		return 0, err
	}

	runways, err := importRunways(ctx, tx, runwaysPath, airports)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO catalog_meta (key, value) VALUES ('imported_at', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return 0, fmt.Errorf("failed to record import time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}

	s.logger.Info("Imported airport catalog",
		logger.Int("airports", len(airports)),
		logger.Int("runways", runways),
		logger.Duration("duration", time.Since(startTime)))

	return len(airports), nil
}

func importAirports(ctx context.Context, tx *sql.Tx, path string) (map[string]bool, error) {
	reader, closeFn, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	cols, err := readHeader(reader, "ident", "type", "name", "latitude_deg", "longitude_deg", "elevation_ft")
	if err != nil {
		return nil, fmt.Errorf("airports csv %s: %w", path, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO airports (icao, name, type, latitude, longitude, elevation_ft, municipality, country)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare airport insert: %w", err)
	}
	defer stmt.Close()

	imported := make(map[string]bool)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read airports csv: %w", err)
		}

		ident := strings.ToUpper(cols.get(record, "ident"))
		kind := cols.get(record, "type")
		if !IsAirportCode(ident) || kind == "closed" {
			continue
		}

		lat, errLat := strconv.ParseFloat(cols.get(record, "latitude_deg"), 64)
		lon, errLon := strconv.ParseFloat(cols.get(record, "longitude_deg"), 64)
		if errLat != nil || errLon != nil {
			continue
		}
		elevation, _ := strconv.Atoi(cols.get(record, "elevation_ft"))

		if _, err := stmt.ExecContext(ctx,
			ident,
			cols.get(record, "name"),
			kind,
			lat,
			lon,
			elevation,
			nullString(cols.get(record, "municipality")),
			nullString(cols.get(record, "iso_country")),
		); err != nil {
			return nil, fmt.Errorf("failed to insert airport %s: %w", ident, err)
		}
		imported[ident] = true
	}

	return imported, nil
}

func importRunways(ctx context.Context, tx *sql.Tx, path string, airports map[string]bool) (int, error) {
	reader, closeFn, err := openCSV(path)
	if err != nil {
		return 0, err
	}
	defer closeFn()

	cols, err := readHeader(reader, "airport_ident", "le_ident", "he_ident")
	if err != nil {
		return 0, fmt.Errorf("runways csv %s: %w", path, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO runways (airport_icao, le_ident, he_ident, length_ft, width_ft, surface, lighted, closed, le_heading_true, he_heading_true)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare runway insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read runways csv: %w", err)
		}

		ident := strings.ToUpper(cols.get(record, "airport_ident"))
		if !airports[ident] {
			continue
		}

		length, _ := strconv.Atoi(cols.get(record, "length_ft"))
		width, _ := strconv.Atoi(cols.get(record, "width_ft"))

		if _, err := stmt.ExecContext(ctx,
			ident,
			cols.get(record, "le_ident"),
			cols.get(record, "he_ident"),
			length,
			width,
			cols.get(record, "surface"),
			cols.get(record, "lighted") == "1",
			cols.get(record, "closed") == "1",
			nullFloat(cols.get(record, "le_heading_degT")),
			nullFloat(cols.get(record, "he_heading_degT")),
		); err != nil {
			return 0, fmt.Errorf("failed to insert runway for %s: %w", ident, err)
		}
		count++
	}

	return count, nil
}

// Search returns airport codes starting with prefix in alphabetical order
func (s *AirportStorage) Search(ctx context.Context, prefix string, limit int) ([]string, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" || len(prefix) > 4 || !isAlphanumeric(prefix) {
		return []string{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT icao FROM airports WHERE icao LIKE ? ORDER BY icao LIMIT ?`,
		prefix+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search airports: %w", err)
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan airport code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// Get returns the airport with its runways
func (s *AirportStorage) Get(ctx context.Context, icao string) (*AirportRecord, error) {
	icao = strings.ToUpper(strings.TrimSpace(icao))

	var airport AirportRecord
	var municipality, country sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT icao, name, type, latitude, longitude, elevation_ft, municipality, country
		FROM airports WHERE icao = ?`, icao,
	).Scan(
		&airport.ICAO,
		&airport.Name,
		&airport.Type,
		&airport.Latitude,
		&airport.Longitude,
		&airport.ElevationFt,
		&municipality,
		&country,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrAirportNotFound, icao)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query airport %s: %w", icao, err)
	}

	// Handle nullable fields
	if municipality.Valid {
		airport.Municipality = municipality.String
	}
	if country.Valid {
		airport.Country = country.String
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT le_ident, he_ident, length_ft, width_ft, surface, lighted, closed, le_heading_true, he_heading_true
		FROM runways WHERE airport_icao = ? ORDER BY length_ft DESC, id`, icao,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runways for %s: %w", icao, err)
	}
	defer rows.Close()

	airport.Runways = []RunwayRecord{}
	for rows.Next() {
		var rwy RunwayRecord
		var leIdent, heIdent, surface sql.NullString
		var length, width sql.NullInt64
		var leHeading, heHeading sql.NullFloat64

		if err := rows.Scan(
			&leIdent,
			&heIdent,
			&length,
			&width,
			&surface,
			&rwy.Lighted,
			&rwy.Closed,
			&leHeading,
			&heHeading,
		); err != nil {
			return nil, fmt.Errorf("failed to scan runway: %w", err)
		}

		rwy.LeIdent = leIdent.String
		rwy.HeIdent = heIdent.String
		rwy.Surface = surface.String
		rwy.LengthFt = int(length.Int64)
		rwy.WidthFt = int(width.Int64)
		if leHeading.Valid {
			rwy.LeHeadingTrue = &leHeading.Float64
		}
		if heHeading.Valid {
			rwy.HeHeadingTrue = &heHeading.Float64
		}

		airport.Runways = append(airport.Runways, rwy)
	}

	return &airport, rows.Err()
}

// Count returns the number of airports in the catalog
func (s *AirportStorage) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM airports`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count airports: %w", err)
	}
	return count, nil
}

// IsAirportCode reports whether s is a four character alphanumeric code
func IsAirportCode(s string) bool {
	return len(s) == 4 && isAlphanumeric(s)
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

type csvColumns map[string]int

func (c csvColumns) get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func openCSV(path string) (*csv.Reader, func(), error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	reader := csv.NewReader(file)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	return reader, func() { file.Close() }, nil
}

func readHeader(reader *csv.Reader, required ...string) (csvColumns, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(csvColumns, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(s string) sql.NullFloat64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
