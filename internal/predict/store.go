package predict

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"cricpulse/pkg/contracts/domain"
)

const createPredictionsTable = `
CREATE TABLE IF NOT EXISTS predictions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	subject TEXT NOT NULL,
	value REAL NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_predictions_kind ON predictions(kind);
`

// Store keeps prediction history in a local SQLite database for the
// dashboard's history view.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and initializes) the prediction history database.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open predictions db: %w", err)
	}
	if _, err := db.Exec(createPredictionsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize predictions db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record persists one prediction.
func (s *Store) Record(ctx context.Context, kind, subject string, value float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions (kind, subject, value, created_at) VALUES (?, ?, ?, ?)`,
		kind, subject, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record prediction: %w", err)
	}
	return nil
}

// Recent returns the latest n predictions, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]domain.PredictionRecord, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, subject, value, created_at FROM predictions ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var records []domain.PredictionRecord
	for rows.Next() {
		var r domain.PredictionRecord
		if err := rows.Scan(&r.ID, &r.Kind, &r.Subject, &r.Value, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
