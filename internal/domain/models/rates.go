package models

import "time"

// RateSnapshot holds one fetched set of FX rates relative to BaseCurrency,
// the wall-clock time of the fetch and the source that produced it.
// Immutable once created: superseded by a newer snapshot, never mutated.
// A snapshot past its TTL is retained as the stale fallback tier.
type RateSnapshot struct {
	Rates     map[string]float64
	FetchedAt time.Time
	Source    string
}

// Age returns the time elapsed since the snapshot was fetched.
func (s *RateSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// Fresh reports whether the snapshot is still within its TTL.
func (s *RateSnapshot) Fresh(now time.Time, ttl time.Duration) bool {
	return s.Age(now) < ttl
}
