package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
	"github.com/alanyoungcy/cryptopredict/internal/metrics"
)

// MaxHistory caps how many records a history query returns.
const MaxHistory = 100

// Predictor is the upstream prediction source.
type Predictor interface {
	Predict(ctx context.Context, assetID string) (domain.Prediction, error)
}

// HistoryRow is one entry of the prediction history table.
type HistoryRow struct {
	domain.PredictionRecord
	Sentiment domain.Sentiment `json:"sentiment"`
}

// PredictionService fetches predictions and reads and writes the prediction
// store.
type PredictionService struct {
	predictor Predictor
	store     domain.PredictionStore
	catalog   *domain.Catalog
	logger    *slog.Logger
}

// NewPredictionService creates a PredictionService.
func NewPredictionService(predictor Predictor, store domain.PredictionStore, catalog *domain.Catalog, logger *slog.Logger) *PredictionService {
	return &PredictionService{
		predictor: predictor,
		store:     store,
		catalog:   catalog,
		logger:    logger.With(slog.String("component", "prediction_service")),
	}
}

// Predict fetches the latest prediction for an asset.
func (s *PredictionService) Predict(ctx context.Context, assetID string) (domain.Prediction, error) {
	started := time.Now()
	p, err := s.predictor.Predict(ctx, assetID)
	metrics.ObserveFeed(metrics.FeedPrediction, started, err)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("prediction_service: predict %q: %w", assetID, err)
	}
	return p, nil
}

// Save appends a prediction record to the store.
func (s *PredictionService) Save(ctx context.Context, rec domain.PredictionRecord) error {
	err := s.store.Insert(ctx, rec)
	metrics.ObservePersist(err)
	if err != nil {
		return fmt.Errorf("prediction_service: save %s: %w", rec.ID, err)
	}
	s.logger.DebugContext(ctx, "prediction saved",
		slog.String("asset_id", rec.AssetID),
		slog.Time("predicted_for", rec.PredictedForTime),
	)
	return nil
}

// Recent returns up to limit records for the asset, newest first. limit is
// clamped to (0, MaxHistory].
func (s *PredictionService) Recent(ctx context.Context, assetID string, limit int) ([]domain.PredictionRecord, error) {
	if limit <= 0 || limit > MaxHistory {
		limit = MaxHistory
	}
	started := time.Now()
	recs, err := s.store.ListByAsset(ctx, assetID, limit)
	metrics.ObserveFeed(metrics.FeedHistory, started, err)
	if err != nil {
		return nil, fmt.Errorf("prediction_service: list %q: %w", assetID, err)
	}
	return recs, nil
}

// History validates the asset and returns its history rows with sentiment
// labels attached.
func (s *PredictionService) History(ctx context.Context, assetID string, limit int) ([]HistoryRow, error) {
	if _, err := s.catalog.Lookup(assetID); err != nil {
		return nil, fmt.Errorf("prediction_service: %w", err)
	}
	recs, err := s.Recent(ctx, assetID, limit)
	if err != nil {
		return nil, err
	}
	rows := make([]HistoryRow, len(recs))
	for i, r := range recs {
		rows[i] = HistoryRow{PredictionRecord: r, Sentiment: domain.ClassifySentiment(r.SentimentScore)}
	}
	return rows, nil
}
