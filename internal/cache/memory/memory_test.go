package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
)

func TestPriceCache(t *testing.T) {
	ctx := context.Background()
	c := NewPriceCache()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	_, _, err := c.GetPrice(ctx, "bitcoin")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, c.SetPrice(ctx, "bitcoin", 61000, ts))
	require.NoError(t, c.SetPrice(ctx, "ethereum", 3000, ts))

	price, got, err := c.GetPrice(ctx, "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, 61000.0, price)
	assert.True(t, ts.Equal(got))

	prices, err := c.GetPrices(ctx, []string{"bitcoin", "solana"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"bitcoin": 61000}, prices)
}

func TestSignalBusDelivers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewSignalBus()

	exact, err := bus.Subscribe(ctx, "dashboard")
	require.NoError(t, err)
	wild, err := bus.Subscribe(ctx, "price*")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "dashboard", []byte("snap")))
	require.NoError(t, bus.Publish(ctx, "prices", []byte("tick")))

	assert.Equal(t, []byte("snap"), <-exact)
	assert.Equal(t, []byte("tick"), <-wild)
	select {
	case msg := <-exact:
		t.Fatalf("unexpected message %q", msg)
	default:
	}
}

func TestSignalBusClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := NewSignalBus()
	ch, err := bus.Subscribe(ctx, "dashboard")
	require.NoError(t, err)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	assert.NoError(t, bus.Publish(context.Background(), "dashboard", []byte("late")))
}
