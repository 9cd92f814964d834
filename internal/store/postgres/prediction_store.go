package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
)

// PredictionStore implements domain.PredictionStore using PostgreSQL.
type PredictionStore struct {
	pool *pgxpool.Pool
}

// NewPredictionStore creates a new PredictionStore backed by the given pool.
func NewPredictionStore(pool *pgxpool.Pool) *PredictionStore {
	return &PredictionStore{pool: pool}
}

const predictionColumns = `id, crypto_id, symbol, name, sentiment_score,
	prediction_time, predicted_for_time, real_time_price, predicted_price`

// Insert appends a prediction record.
func (s *PredictionStore) Insert(ctx context.Context, rec domain.PredictionRecord) error {
	const query = `INSERT INTO predictions (` + predictionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.AssetID, rec.Symbol, rec.Name, rec.SentimentScore,
		rec.PredictionTime.UTC(), rec.PredictedForTime.UTC(),
		rec.RealTimePrice, rec.PredictedPrice,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert prediction %s: %w", rec.ID, err)
	}
	return nil
}

// ListByAsset returns the newest records for an asset.
func (s *PredictionStore) ListByAsset(ctx context.Context, assetID string, limit int) ([]domain.PredictionRecord, error) {
	const query = `SELECT ` + predictionColumns + ` FROM predictions
		WHERE crypto_id = $1
		ORDER BY prediction_time DESC
		LIMIT $2`
	rows, err := s.pool.Query(ctx, query, assetID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list predictions for %s: %w", assetID, err)
	}
	return scanPredictionRows(rows)
}

// ListBefore returns all records issued before the cutoff, oldest first.
func (s *PredictionStore) ListBefore(ctx context.Context, before time.Time) ([]domain.PredictionRecord, error) {
	const query = `SELECT ` + predictionColumns + ` FROM predictions
		WHERE prediction_time < $1
		ORDER BY prediction_time ASC`
	rows, err := s.pool.Query(ctx, query, before.UTC())
	if err != nil {
		return nil, fmt.Errorf("postgres: list predictions before %s: %w", before.Format(time.RFC3339), err)
	}
	return scanPredictionRows(rows)
}

func scanPredictionRows(rows pgx.Rows) ([]domain.PredictionRecord, error) {
	defer rows.Close()

	var out []domain.PredictionRecord
	for rows.Next() {
		var r domain.PredictionRecord
		if err := rows.Scan(
			&r.ID, &r.AssetID, &r.Symbol, &r.Name, &r.SentimentScore,
			&r.PredictionTime, &r.PredictedForTime, &r.RealTimePrice, &r.PredictedPrice,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan prediction: %w", err)
		}
		r.PredictionTime = r.PredictionTime.UTC()
		r.PredictedForTime = r.PredictedForTime.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: prediction rows: %w", err)
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.PredictionStore = (*PredictionStore)(nil)
