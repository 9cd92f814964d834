package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m, s, ns int) time.Time {
	return time.Date(2024, 3, 1, h, m, s, ns, time.UTC)
}

func TestCurrent(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"mid bucket", at(10, 7, 42, 500), at(10, 0, 0, 0)},
		{"exact boundary", at(10, 15, 0, 0), at(10, 15, 0, 0)},
		{"last instant", at(10, 29, 59, 999_999_999), at(10, 15, 0, 0)},
		{"end of hour", at(10, 59, 1, 0), at(10, 45, 0, 0)},
		{"midnight", at(0, 3, 0, 0), at(0, 0, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(Current(tt.now)), "got %v", Current(tt.now))
		})
	}
}

func TestCurrentNormalisesZone(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2024, 3, 1, 12, 7, 0, 0, loc)

	got := Current(now)
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, at(10, 0, 0, 0).Equal(got))
}

func TestNext(t *testing.T) {
	assert.True(t, at(10, 15, 0, 0).Equal(Next(at(10, 7, 0, 0))))
	assert.True(t, at(11, 0, 0, 0).Equal(Next(at(10, 45, 0, 0))))
	assert.True(t, at(10, 30, 0, 0).Equal(Next(at(10, 15, 0, 0))))
}

func TestNextIsAlwaysOneBucketAhead(t *testing.T) {
	start := at(9, 0, 0, 0)
	for i := 0; i < 3600; i += 37 {
		now := start.Add(time.Duration(i) * time.Second)
		assert.Equal(t, Length, Next(now).Sub(Current(now)))
		assert.False(t, Current(now).After(now))
		assert.True(t, Next(now).After(now))
	}
}

func TestContains(t *testing.T) {
	now := at(10, 7, 0, 0)
	assert.True(t, Contains(now, at(10, 0, 0, 0)))
	assert.True(t, Contains(now, at(10, 14, 59, 0)))
	assert.False(t, Contains(now, at(10, 15, 0, 0)))
	assert.False(t, Contains(now, at(9, 45, 0, 0)))
}
