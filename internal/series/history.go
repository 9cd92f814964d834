// Package series holds the pure reconciliation logic that turns bucketed
// price and prediction histories into a chart-ready sequence.
package series

import (
	"sort"
	"time"

	"github.com/alanyoungcy/cryptopredict/internal/interval"
)

// History maps 15-minute buckets to a single value. It is not safe for
// concurrent use; the owning session serialises access.
type History struct {
	values map[int64]float64
}

// NewHistory returns an empty History.
func NewHistory() *History {
	return &History{values: make(map[int64]float64)}
}

func key(t time.Time) int64 {
	return interval.Current(t).UnixMilli()
}

// Put stores v for the bucket containing t unless that bucket already has a
// value. It reports whether v was stored.
func (h *History) Put(t time.Time, v float64) bool {
	k := key(t)
	if _, ok := h.values[k]; ok {
		return false
	}
	h.values[k] = v
	return true
}

// Get returns the value for the bucket containing t.
func (h *History) Get(t time.Time) (float64, bool) {
	v, ok := h.values[key(t)]
	return v, ok
}

// Purge removes every bucket that starts before cutoff and returns how many
// were dropped.
func (h *History) Purge(cutoff time.Time) int {
	limit := cutoff.UnixMilli()
	n := 0
	for k := range h.values {
		if k < limit {
			delete(h.values, k)
			n++
		}
	}
	return n
}

// Reset drops every bucket.
func (h *History) Reset() {
	clear(h.values)
}

// Len returns the number of buckets held.
func (h *History) Len() int {
	return len(h.values)
}

// Values returns the stored values ordered by bucket.
func (h *History) Values() []float64 {
	keys := make([]int64, 0, len(h.values))
	for k := range h.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = h.values[k]
	}
	return out
}
