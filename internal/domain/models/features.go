package models

import "time"

// FeatureFrame is a dense table of derived indicators, one row per series
// timestamp. Invariant: no NaN cell survives construction — rows lacking
// lookback are dropped by the feature builder. Rebuilt in full on every
// training and prediction call.
type FeatureFrame struct {
	Dates   []time.Time
	Columns []string
	// Data is row-major: Data[i][j] holds Columns[j] at Dates[i].
	Data [][]float64
}

// NumRows returns the number of rows in the frame.
func (f *FeatureFrame) NumRows() int { return len(f.Data) }

// ColumnIndex returns the position of the named column, or -1.
func (f *FeatureFrame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column, or nil when absent.
func (f *FeatureFrame) Column(name string) []float64 {
	j := f.ColumnIndex(name)
	if j < 0 {
		return nil
	}
	out := make([]float64, len(f.Data))
	for i, row := range f.Data {
		out[i] = row[j]
	}
	return out
}
