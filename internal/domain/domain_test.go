package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogLookup(t *testing.T) {
	c := NewCatalog(DefaultAssets(), map[string]float64{"solana": 5, "nope": 1})

	btc, err := c.Lookup("bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "BTC", btc.Symbol)
	assert.Equal(t, 1000.0, btc.TickStep)

	sol, err := c.Lookup("solana")
	require.NoError(t, err)
	assert.Equal(t, 5.0, sol.TickStep)

	_, err = c.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownAsset)

	assert.Len(t, c.All(), 10)
	assert.Equal(t, "bitcoin", c.IDs()[0])
	assert.Equal(t, "matic-network", c.IDs()[9])
}

func TestCatalogAllIsACopy(t *testing.T) {
	c := NewCatalog(DefaultAssets(), nil)
	all := c.All()
	all[0].Symbol = "XXX"

	btc, err := c.Lookup("bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "BTC", btc.Symbol)
	assert.Equal(t, "BTC", c.All()[0].Symbol)
}

func TestClassifySentiment(t *testing.T) {
	tests := []struct {
		score float64
		want  Sentiment
	}{
		{0.31, SentimentBullish},
		{0.3, SentimentNeutral},
		{0, SentimentNeutral},
		{-0.3, SentimentNeutral},
		{-0.31, SentimentBearish},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifySentiment(tt.score), "score %v", tt.score)
	}
}
