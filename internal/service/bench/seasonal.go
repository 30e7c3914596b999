package bench

import "fmt"

// SeasonalNaive is the classical fallback forecaster: it memorizes the
// trailing seasonal mean of the target and predicts it flat. It exists
// to floor the bench with a model that cannot overfit.
type SeasonalNaive struct {
	Season int
	Level  float64
	Fitted bool
}

// NewSeasonalNaive creates the fallback forecaster. Season is the number
// of trailing observations averaged into the level (a trading week by
// default).
func NewSeasonalNaive(season int) *SeasonalNaive {
	if season < 1 {
		season = 5
	}
	return &SeasonalNaive{Season: season}
}

func (s *SeasonalNaive) Name() string { return "seasonal_naive" }

// Fit stores the trailing seasonal mean of the target.
func (s *SeasonalNaive) Fit(x [][]float64, y []float64) error {
	if len(y) == 0 {
		return fmt.Errorf("seasonal_naive: empty training set")
	}
	season := s.Season
	if season > len(y) {
		season = len(y)
	}
	var sum float64
	for _, v := range y[len(y)-season:] {
		sum += v
	}
	s.Level = sum / float64(season)
	s.Fitted = true
	return nil
}

// Predict returns the memorized level for every input row.
func (s *SeasonalNaive) Predict(x [][]float64) ([]float64, error) {
	if !s.Fitted {
		return nil, fmt.Errorf("seasonal_naive: not fitted")
	}
	out := make([]float64, len(x))
	for i := range out {
		out[i] = s.Level
	}
	return out, nil
}
