// Package sqlite implements domain.PredictionStore on an embedded SQLite
// database for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/alanyoungcy/cryptopredict/internal/domain"
)

// PredictionStore persists predictions in SQLite. Times are stored as unix
// milliseconds.
type PredictionStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
func Open(ctx context.Context, path string) (*PredictionStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent inserts.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: set WAL mode: %w", err)
	}

	s := &PredictionStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return s, nil
}

func (s *PredictionStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			id                 TEXT PRIMARY KEY,
			crypto_id          TEXT NOT NULL,
			symbol             TEXT NOT NULL,
			name               TEXT NOT NULL,
			sentiment_score    REAL NOT NULL DEFAULT 0,
			prediction_time    INTEGER NOT NULL,
			predicted_for_time INTEGER NOT NULL,
			real_time_price    REAL NOT NULL DEFAULT 0,
			predicted_price    REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_crypto_time ON predictions(crypto_id, prediction_time DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_time ON predictions(prediction_time)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *PredictionStore) Close() error {
	return s.db.Close()
}

const predictionColumns = `id, crypto_id, symbol, name, sentiment_score,
	prediction_time, predicted_for_time, real_time_price, predicted_price`

// Insert appends a prediction record.
func (s *PredictionStore) Insert(ctx context.Context, rec domain.PredictionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions (`+predictionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.AssetID, rec.Symbol, rec.Name, rec.SentimentScore,
		rec.PredictionTime.UnixMilli(), rec.PredictedForTime.UnixMilli(),
		rec.RealTimePrice, rec.PredictedPrice,
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert prediction %s: %w", rec.ID, err)
	}
	return nil
}

// ListByAsset returns the newest records for an asset.
func (s *PredictionStore) ListByAsset(ctx context.Context, assetID string, limit int) ([]domain.PredictionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+predictionColumns+` FROM predictions
		WHERE crypto_id = ?
		ORDER BY prediction_time DESC
		LIMIT ?`, assetID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list predictions for %s: %w", assetID, err)
	}
	return scanRows(rows)
}

// ListBefore returns all records issued before the cutoff, oldest first.
func (s *PredictionStore) ListBefore(ctx context.Context, before time.Time) ([]domain.PredictionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+predictionColumns+` FROM predictions
		WHERE prediction_time < ?
		ORDER BY prediction_time ASC`, before.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("sqlite: list predictions before %s: %w", before.Format(time.RFC3339), err)
	}
	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]domain.PredictionRecord, error) {
	defer rows.Close()

	var out []domain.PredictionRecord
	for rows.Next() {
		var (
			r               domain.PredictionRecord
			issued, predFor int64
		)
		if err := rows.Scan(
			&r.ID, &r.AssetID, &r.Symbol, &r.Name, &r.SentimentScore,
			&issued, &predFor, &r.RealTimePrice, &r.PredictedPrice,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan prediction: %w", err)
		}
		r.PredictionTime = time.UnixMilli(issued).UTC()
		r.PredictedForTime = time.UnixMilli(predFor).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: prediction rows: %w", err)
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.PredictionStore = (*PredictionStore)(nil)
