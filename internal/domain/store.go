package domain

import (
	"context"
	"time"
)

// PredictionStore persists issued predictions. Records are append-only.
type PredictionStore interface {
	Insert(ctx context.Context, rec PredictionRecord) error
	// ListByAsset returns at most limit records for the asset, newest
	// prediction_time first.
	ListByAsset(ctx context.Context, assetID string, limit int) ([]PredictionRecord, error)
	// ListBefore returns every record issued strictly before the cutoff,
	// oldest first.
	ListBefore(ctx context.Context, before time.Time) ([]PredictionRecord, error)
}
