package features

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"SpotCast/internal/domain/models"
)

const (
	shortWindow = 5
	longWindow  = 20
	rangeWindow = 14
	rsiWindow   = 14
	rsiEpsilon  = 1e-9
)

// BaseColumns is the fixed derived-column layout of every feature frame.
// Optional overlays are appended after these.
var BaseColumns = []string{
	"Close", "Open", "High", "Low", "Volume",
	"returns", "ma_5", "ma_20", "volatility_20",
	"lag_1", "lag_7",
	"rolling_min_14", "rolling_max_14", "rsi",
}

// Build derives the technical feature frame from a raw series. Rows
// lacking the full lookback window are dropped; the returned frame never
// carries a NaN cell.
func Build(series models.Series) (*models.FeatureFrame, error) {
	n := len(series)
	if n <= longWindow {
		return nil, fmt.Errorf("%w: %d bars, need more than %d", models.ErrInsufficientData, n, longWindow)
	}

	closes := series.Closes()
	returns := returnsOf(closes)
	ma5 := rollingMean(closes, shortWindow)
	ma20 := rollingMean(closes, longWindow)
	vol20 := rollingStd(returns, longWindow)
	lag1 := lag(closes, 1)
	lag7 := lag(closes, 7)
	min14 := rollingMin(closes, rangeWindow)
	max14 := rollingMax(closes, rangeWindow)
	rsi := rsiOf(closes, rsiWindow)

	frame := &models.FeatureFrame{
		Columns: append([]string(nil), BaseColumns...),
	}
	for i := 0; i < n; i++ {
		row := []float64{
			series[i].Close, series[i].Open, series[i].High, series[i].Low, series[i].Volume,
			returns[i], ma5[i], ma20[i], vol20[i],
			lag1[i], lag7[i],
			min14[i], max14[i], rsi[i],
		}
		if hasNaN(row) {
			continue
		}
		frame.Dates = append(frame.Dates, series[i].Date)
		frame.Data = append(frame.Data, row)
	}

	if frame.NumRows() == 0 {
		return nil, fmt.Errorf("%w: no rows survive the lookback window", models.ErrInsufficientData)
	}
	return frame, nil
}

// AddCalendar appends cyclical month encoding and a normalized year column.
func AddCalendar(frame *models.FeatureFrame) {
	frame.Columns = append(frame.Columns, "month_sin", "month_cos", "year_norm")
	minYear, maxYear := math.MaxFloat64, -math.MaxFloat64
	for _, d := range frame.Dates {
		y := float64(d.Year())
		minYear = math.Min(minYear, y)
		maxYear = math.Max(maxYear, y)
	}
	span := maxYear - minYear
	if span == 0 {
		span = 1
	}
	for i, d := range frame.Dates {
		m := float64(d.Month())
		frame.Data[i] = append(frame.Data[i],
			math.Sin(2*math.Pi*m/12),
			math.Cos(2*math.Pi*m/12),
			(float64(d.Year())-minYear)/span,
		)
	}
}

// AddOverlay joins an exogenous daily series by timestamp, forward- then
// backward-filling holes. An empty overlay is a no-op rather than an
// error; overlays are enrichments, not requirements.
func AddOverlay(frame *models.FeatureFrame, name string, overlay map[time.Time]float64) {
	if len(overlay) == 0 {
		return
	}

	values := make([]float64, len(frame.Dates))
	for i, d := range frame.Dates {
		if v, ok := overlay[d]; ok {
			values[i] = v
		} else {
			values[i] = math.NaN()
		}
	}
	fillForward(values)
	fillBackward(values)
	if hasNaN(values) {
		// Overlay never intersected the frame's dates; skip it.
		return
	}

	frame.Columns = append(frame.Columns, name)
	for i := range frame.Data {
		frame.Data[i] = append(frame.Data[i], values[i])
	}
}

func returnsOf(closes []float64) []float64 {
	out := nanSlice(len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			out[i] = closes[i]/closes[i-1] - 1
		}
	}
	return out
}

func rollingMean(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	for i := window - 1; i < len(values); i++ {
		out[i] = stat.Mean(values[i-window+1:i+1], nil)
	}
	return out
}

// rollingStd is the sample standard deviation over the trailing window.
// The input may open with NaN cells (returns are undefined at index 0),
// so the window must clear them before a value is defined.
func rollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	for i := window - 1; i < len(values); i++ {
		w := values[i-window+1 : i+1]
		if hasNaN(w) {
			continue
		}
		out[i] = stat.StdDev(w, nil)
	}
	return out
}

func rollingMin(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	for i := window - 1; i < len(values); i++ {
		m := values[i-window+1]
		for _, v := range values[i-window+2 : i+1] {
			m = math.Min(m, v)
		}
		out[i] = m
	}
	return out
}

func rollingMax(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	for i := window - 1; i < len(values); i++ {
		m := values[i-window+1]
		for _, v := range values[i-window+2 : i+1] {
			m = math.Max(m, v)
		}
		out[i] = m
	}
	return out
}

func lag(values []float64, k int) []float64 {
	out := nanSlice(len(values))
	for i := k; i < len(values); i++ {
		out[i] = values[i-k]
	}
	return out
}

// rsiOf computes the 14-period relative strength index over simple
// trailing averages. A small epsilon stands in for a zero average loss.
func rsiOf(closes []float64, window int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}
	for i := window; i < n; i++ {
		avgGain := stat.Mean(gains[i-window+1:i+1], nil)
		avgLoss := stat.Mean(losses[i-window+1:i+1], nil)
		if avgLoss == 0 {
			avgLoss = rsiEpsilon
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func fillForward(values []float64) {
	last := math.NaN()
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = last
		} else {
			last = v
		}
	}
}

func fillBackward(values []float64) {
	next := math.NaN()
	for i := len(values) - 1; i >= 0; i-- {
		if math.IsNaN(values[i]) {
			values[i] = next
		} else {
			next = values[i]
		}
	}
}
