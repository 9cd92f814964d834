// Package storetest holds behaviour tests shared by every
// domain.PredictionStore implementation.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
)

// Record builds a record issued at issued for assetID.
func Record(assetID string, issued time.Time, predicted float64) domain.PredictionRecord {
	return domain.PredictionRecord{
		ID:               uuid.NewString(),
		AssetID:          assetID,
		Symbol:           "SYM",
		Name:             "Name " + assetID,
		SentimentScore:   0.25,
		PredictionTime:   issued.UTC(),
		PredictedForTime: issued.UTC().Truncate(15 * time.Minute).Add(15 * time.Minute),
		RealTimePrice:    predicted - 1,
		PredictedPrice:   predicted,
	}
}

// Run exercises store through the domain.PredictionStore contract. store
// must be empty.
func Run(t *testing.T, store domain.PredictionStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rec := Record("bitcoin", base.Add(time.Duration(i)*time.Minute), float64(100+i))
		require.NoError(t, store.Insert(ctx, rec), "insert %d", i)
	}
	require.NoError(t, store.Insert(ctx, Record("ethereum", base.Add(-time.Hour), 50)))

	t.Run("list by asset newest first", func(t *testing.T) {
		got, err := store.ListByAsset(ctx, "bitcoin", 3)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, 104.0, got[0].PredictedPrice)
		assert.Equal(t, 103.0, got[1].PredictedPrice)
		assert.Equal(t, 102.0, got[2].PredictedPrice)
		for _, r := range got {
			assert.Equal(t, "bitcoin", r.AssetID)
		}
	})

	t.Run("round trips fields", func(t *testing.T) {
		got, err := store.ListByAsset(ctx, "ethereum", 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		r := got[0]
		assert.Equal(t, "Name ethereum", r.Name)
		assert.Equal(t, 0.25, r.SentimentScore)
		assert.Equal(t, 49.0, r.RealTimePrice)
		assert.True(t, base.Add(-time.Hour).Equal(r.PredictionTime), fmt.Sprint(r.PredictionTime))
		assert.True(t, base.Add(-45*time.Minute).Equal(r.PredictedForTime), fmt.Sprint(r.PredictedForTime))
	})

	t.Run("unknown asset is empty", func(t *testing.T) {
		got, err := store.ListByAsset(ctx, "dogecoin", 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("list before oldest first", func(t *testing.T) {
		got, err := store.ListBefore(ctx, base.Add(2*time.Minute))
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "ethereum", got[0].AssetID)
		assert.Equal(t, 100.0, got[1].PredictedPrice)
		assert.Equal(t, 101.0, got[2].PredictedPrice)
	})
}
