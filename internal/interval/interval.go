// Package interval aligns wall-clock instants to the 15-minute prediction
// cycle. Buckets are computed in UTC.
package interval

import "time"

// Length is the size of one prediction bucket.
const Length = 15 * time.Minute

// Current returns the start of the bucket containing now: minutes rounded
// down to a multiple of 15, seconds and sub-seconds zeroed.
func Current(now time.Time) time.Time {
	return now.UTC().Truncate(Length)
}

// Next returns the start of the bucket after the one containing now.
func Next(now time.Time) time.Time {
	return Current(now).Add(Length)
}

// Contains reports whether t falls in the bucket that contains now.
func Contains(now, t time.Time) bool {
	start := Current(now)
	return !t.Before(start) && t.Before(start.Add(Length))
}
