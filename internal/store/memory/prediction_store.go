// Package memory provides an in-process domain.PredictionStore used when no
// database is configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
)

// PredictionStore keeps records in a slice guarded by a mutex.
type PredictionStore struct {
	mu      sync.RWMutex
	records []domain.PredictionRecord
}

// NewPredictionStore returns an empty store.
func NewPredictionStore() *PredictionStore {
	return &PredictionStore{}
}

// Insert appends a record.
func (s *PredictionStore) Insert(_ context.Context, rec domain.PredictionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// ListByAsset returns the newest records for an asset.
func (s *PredictionStore) ListByAsset(_ context.Context, assetID string, limit int) ([]domain.PredictionRecord, error) {
	s.mu.RLock()
	var out []domain.PredictionRecord
	for _, r := range s.records {
		if r.AssetID == assetID {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PredictionTime.After(out[j].PredictionTime)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListBefore returns records issued before the cutoff, oldest first.
func (s *PredictionStore) ListBefore(_ context.Context, before time.Time) ([]domain.PredictionRecord, error) {
	s.mu.RLock()
	var out []domain.PredictionRecord
	for _, r := range s.records {
		if r.PredictionTime.Before(before) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PredictionTime.Before(out[j].PredictionTime)
	})
	return out, nil
}

// Len returns the number of stored records.
func (s *PredictionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Compile-time interface check.
var _ domain.PredictionStore = (*PredictionStore)(nil)
