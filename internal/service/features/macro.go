package features

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"SpotCast/internal/domain/models"
)

const (
	fxVolWindow     = 10
	fxVolMinPeriods = 2
	inflWindow      = 30
	inflMinPeriods  = 5
	rateWindow      = 60
	rateMinPeriods  = 10
)

// AddMacro appends the macro overlay columns: the regional FX rate, its
// rolling volatility, and inflation / interest-rate proxies derived from
// the frame's own returns. The proxies stand in for direct CPI and
// central-bank feeds, which have no live source here; a neutral rate of
// 1.0 keeps the column set intact when no FX quote applies.
func AddMacro(frame *models.FeatureFrame, fxRate float64) {
	n := frame.NumRows()
	if n == 0 {
		return
	}

	fx := make([]float64, n)
	for i := range fx {
		fx[i] = fxRate
	}
	AddOverlay(frame, "fx_rate", byDate(frame.Dates, fx))
	AddOverlay(frame, "fx_volatility",
		byDate(frame.Dates, trailingStd(pctChange(fx), fxVolWindow, fxVolMinPeriods)))

	returns := frame.Column("returns")
	if returns == nil {
		return
	}
	AddOverlay(frame, "inflation_proxy",
		byDate(frame.Dates, trailingMean(returns, inflWindow, inflMinPeriods)))
	AddOverlay(frame, "interest_rate_proxy",
		byDate(frame.Dates, trailingStd(returns, rateWindow, rateMinPeriods)))
}

func byDate(dates []time.Time, values []float64) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(dates))
	for i, d := range dates {
		out[d] = values[i]
	}
	return out
}

func pctChange(values []float64) []float64 {
	out := nanSlice(len(values))
	for i := 1; i < len(values); i++ {
		if values[i-1] != 0 {
			out[i] = values[i]/values[i-1] - 1
		}
	}
	return out
}

// trailingMean is the mean over the trailing window, zero until
// minPeriods defined values have accumulated. NaN cells do not count
// toward the minimum.
func trailingMean(values []float64, window, minPeriods int) []float64 {
	return trailing(values, window, minPeriods, func(w []float64) float64 {
		return stat.Mean(w, nil)
	})
}

func trailingStd(values []float64, window, minPeriods int) []float64 {
	if minPeriods < 2 {
		minPeriods = 2
	}
	return trailing(values, window, minPeriods, func(w []float64) float64 {
		return stat.StdDev(w, nil)
	})
}

func trailing(values []float64, window, minPeriods int, agg func([]float64) float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		w := make([]float64, 0, i-lo+1)
		for _, v := range values[lo : i+1] {
			if !math.IsNaN(v) {
				w = append(w, v)
			}
		}
		if len(w) < minPeriods {
			continue
		}
		out[i] = agg(w)
	}
	return out
}
