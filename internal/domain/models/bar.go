package models

import "time"

// Bar is one OHLCV observation of a commodity series.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is an ordered-by-time sequence of bars for one (commodity, region)
// pair. Invariant: strictly increasing, unique timestamps. Gaps are tolerated
// (forward-filled on merge); duplicates must never persist.
type Series []Bar

// LastDate returns the timestamp of the newest bar, or the zero time when the
// series is empty.
func (s Series) LastDate() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Date
}

// Closes returns the close column.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Clone returns an independent copy; the historical store hands these out so
// callers cannot mutate the cached series.
func (s Series) Clone() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}
