package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yegors/preflight/pkg/logger"
)

// timestampLayout is fixed width so stored timestamps sort as text
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// BriefingRecord is a summary of a briefing that was served
type BriefingRecord struct {
	ID          string    `json:"id"`
	Departure   string    `json:"departure"`
	Destination string    `json:"destination"`
	IsGo        bool      `json:"recommendation"`
	Reasons     []string  `json:"reasons"`
	Caveats     []string  `json:"caveats"`
	DistanceNM  float64   `json:"distance"`
	CreatedAt   time.Time `json:"generated_at"`
}

// BriefingStorage handles storage of briefing history
type BriefingStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewBriefingStorage creates a briefing history store on a shared database
func NewBriefingStorage(db *sql.DB, log *logger.Logger) *BriefingStorage {
	storage := &BriefingStorage{
		db:     db,
		logger: log.Named("sqlite-briefings"),
	}

	// Initialize database
	if err := storage.initDB(); err != nil {
		storage.logger.Error("Failed to initialize briefing storage", logger.Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *BriefingStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS briefings (
			id TEXT PRIMARY KEY,
			departure TEXT NOT NULL,
			destination TEXT NOT NULL,
			is_go BOOLEAN NOT NULL,
			reasons TEXT NOT NULL,
			caveats TEXT,
			distance_nm REAL NOT NULL,
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create briefings table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_briefings_created_at ON briefings(created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create created_at index: %w", err)
	}

	return nil
}

// StoreBriefing stores a briefing summary
func (s *BriefingStorage) StoreBriefing(ctx context.Context, record *BriefingRecord) error {
	reasons, err := json.Marshal(record.Reasons)
	if err != nil {
		return fmt.Errorf("failed to encode reasons: %w", err)
	}
	caveats, err := json.Marshal(record.Caveats)
	if err != nil {
		return fmt.Errorf("failed to encode caveats: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO briefings
		(id, departure, destination, is_go, reasons, caveats, distance_nm, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Departure,
		record.Destination,
		record.IsGo,
		string(reasons),
		string(caveats),
		record.DistanceNM,
		record.CreatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert briefing: %w", err)
	}

	s.logger.Debug("Briefing stored",
		logger.String("id", record.ID),
		logger.String("departure", record.Departure),
		logger.String("destination", record.Destination))
	return nil
}

// RecentBriefings returns the newest briefings first
func (s *BriefingStorage) RecentBriefings(ctx context.Context, limit int) ([]*BriefingRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, departure, destination, is_go, reasons, caveats, distance_nm, created_at
		FROM briefings
		ORDER BY created_at DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query briefings: %w", err)
	}
	defer rows.Close()

	records := []*BriefingRecord{}
	for rows.Next() {
		var record BriefingRecord
		var createdAt, reasons string
		var caveats sql.NullString

		if err := rows.Scan(
			&record.ID,
			&record.Departure,
			&record.Destination,
			&record.IsGo,
			&reasons,
			&caveats,
			&record.DistanceNM,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan briefing: %w", err)
		}

		// Parse created_at
		record.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		if err := json.Unmarshal([]byte(reasons), &record.Reasons); err != nil {
			return nil, fmt.Errorf("failed to decode reasons: %w", err)
		}

		// Handle nullable fields
		record.Caveats = []string{}
		if caveats.Valid && caveats.String != "" && caveats.String != "null" {
			if err := json.Unmarshal([]byte(caveats.String), &record.Caveats); err != nil {
				return nil, fmt.Errorf("failed to decode caveats: %w", err)
			}
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}

// Count returns the number of briefings served
func (s *BriefingStorage) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM briefings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count briefings: %w", err)
	}
	return count, nil
}
