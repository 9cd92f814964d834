package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	price, ts, ok := parsePrice(map[string]string{"price": "61000.25", "ts": "1709287200000000000"})
	assert.True(t, ok)
	assert.Equal(t, 61000.25, price)
	assert.True(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Equal(ts))

	_, _, ok = parsePrice(map[string]string{})
	assert.False(t, ok)

	_, _, ok = parsePrice(map[string]string{"price": "abc"})
	assert.False(t, ok)

	price, ts, ok = parsePrice(map[string]string{"price": "1"})
	assert.True(t, ok)
	assert.Equal(t, 1.0, price)
	assert.True(t, ts.IsZero())
}

func TestHasPattern(t *testing.T) {
	assert.True(t, hasPattern("dashboard:*"))
	assert.True(t, hasPattern("price?"))
	assert.False(t, hasPattern("dashboard"))
}

func TestPriceKey(t *testing.T) {
	assert.Equal(t, "price:bitcoin", priceKey("bitcoin"))
}

func TestLockKey(t *testing.T) {
	assert.Equal(t, "lock:archive", lockKey("archive"))
}
