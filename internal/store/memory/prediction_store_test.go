package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cryptopredict/internal/store/storetest"
)

func TestPredictionStore(t *testing.T) {
	storetest.Run(t, NewPredictionStore())
}

func TestListByAssetNoLimit(t *testing.T) {
	s := NewPredictionStore()
	ctx := context.Background()
	now := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Insert(ctx, storetest.Record("bitcoin", now.Add(time.Duration(i)*time.Second), 1)))
	}

	got, err := s.ListByAsset(ctx, "bitcoin", 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 3, s.Len())
}
