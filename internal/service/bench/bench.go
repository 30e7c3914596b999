package bench

import (
	"encoding/gob"
	"math"
	"sort"

	"SpotCast/internal/domain/models"
	"SpotCast/pkg/logger"
)

func init() {
	// Artifacts hold a Regressor behind the Predictor interface; gob needs
	// the concrete types registered on both encode and decode.
	gob.Register(&Tree{})
	gob.Register(&Forest{})
	gob.Register(&GradientBoost{})
	gob.Register(&MLP{})
	gob.Register(&SeasonalNaive{})
}

const mapeEpsilon = 1e-9

// Regressor is a trainable predictor.
type Regressor interface {
	models.Predictor
	Fit(x [][]float64, y []float64) error
}

// CandidateResult is one trained candidate and its held-out scores.
// MAPE is a percentage.
type CandidateResult struct {
	Name  string
	Model Regressor
	RMSE  float64
	MAPE  float64
}

// Bench trains a fixed roster of candidate regressors and ranks them on
// a leakage-safe time-ordered holdout.
type Bench struct {
	log    *logger.Logger
	roster func() []Regressor
}

// Option configures the bench.
type Option func(*Bench)

// WithRoster overrides the candidate factory, for tests.
func WithRoster(roster func() []Regressor) Option {
	return func(b *Bench) {
		if roster != nil {
			b.roster = roster
		}
	}
}

// New creates a bench with the default candidate roster.
func New(log *logger.Logger, opts ...Option) *Bench {
	b := &Bench{log: log, roster: DefaultRoster}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// DefaultRoster returns fresh instances of every candidate family.
func DefaultRoster() []Regressor {
	return []Regressor{
		NewGradientBoost(100, 0.1, 3),
		NewForest(50, 8, 1),
		NewTree(6, 3),
		NewMLP(16, 300, 0.01, 1),
		NewSeasonalNaive(5),
	}
}

// Benchmark trains every candidate on the first 80% of the rows (time
// order preserved, never shuffled) and scores each on the final 20%.
// A candidate that fails to fit or predict is excluded, not fatal; the
// call fails only when every candidate failed.
func (b *Bench) Benchmark(x [][]float64, y []float64) ([]CandidateResult, error) {
	n := len(y)
	split := int(float64(n) * 0.8)
	if split < 1 || split >= n {
		return nil, models.ErrInsufficientData
	}

	results := b.run(x[:split], y[:split], x[split:], y[split:])
	if len(results) == 0 {
		return nil, models.ErrNoModelTrained
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].RMSE < results[j].RMSE
	})
	return results, nil
}

// WalkForward re-scores the roster across expanding forward-rolling
// windows and averages the per-window best RMSE/MAPE. The average is
// deliberately more conservative than a single lucky split; it is the
// number persisted with the training run. Datasets too small for more
// than one window fall back to the single-split score.
func (b *Bench) WalkForward(x [][]float64, y []float64) (rmse, mape float64, err error) {
	n := len(y)
	minTrain := 60
	if p := int(float64(n) * 0.6); p > minTrain {
		minTrain = p
	}
	step := 5
	if p := n / 10; p > step {
		step = p
	}

	if n <= minTrain+5 {
		return b.singleSplitScore(x, y)
	}

	var rmses, mapes []float64
	for start := minTrain; start < n; start += step {
		end := start + step
		if end > n {
			end = n
		}
		window := b.run(x[:start], y[:start], x[start:end], y[start:end])
		if len(window) == 0 {
			continue
		}
		sort.Slice(window, func(i, j int) bool {
			return window[i].RMSE < window[j].RMSE
		})
		rmses = append(rmses, window[0].RMSE)
		mapes = append(mapes, window[0].MAPE)
	}

	if len(rmses) == 0 {
		return b.singleSplitScore(x, y)
	}
	if b.log != nil {
		b.log.Debug("walk-forward scored",
			logger.Int("windows", len(rmses)),
			logger.Float64("rmse", mean(rmses)))
	}
	return mean(rmses), mean(mapes), nil
}

func (b *Bench) singleSplitScore(x [][]float64, y []float64) (float64, float64, error) {
	results, err := b.Benchmark(x, y)
	if err != nil {
		return 0, 0, err
	}
	return results[0].RMSE, results[0].MAPE, nil
}

// run trains and scores the roster on one train/test pair, dropping
// failed candidates.
func (b *Bench) run(xTrain [][]float64, yTrain []float64, xTest [][]float64, yTest []float64) []CandidateResult {
	var results []CandidateResult
	for _, candidate := range b.roster() {
		if err := candidate.Fit(xTrain, yTrain); err != nil {
			b.warn(candidate.Name(), "fit failed", err)
			continue
		}
		preds, err := candidate.Predict(xTest)
		if err != nil {
			b.warn(candidate.Name(), "predict failed", err)
			continue
		}
		r := RMSE(yTest, preds)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			b.warn(candidate.Name(), "degenerate score", nil)
			continue
		}
		results = append(results, CandidateResult{
			Name:  candidate.Name(),
			Model: candidate,
			RMSE:  r,
			MAPE:  MAPE(yTest, preds),
		})
	}
	return results
}

func (b *Bench) warn(name, msg string, err error) {
	if b.log == nil {
		return
	}
	fields := []logger.Field{logger.String("candidate", name)}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	b.log.Warn("candidate excluded: "+msg, fields...)
}

// RMSE is the root mean squared error.
func RMSE(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return math.NaN()
	}
	var sum float64
	for i := range actual {
		d := predicted[i] - actual[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual)))
}

// MAPE is the mean absolute percentage error, returned as a percentage.
func MAPE(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return math.NaN()
	}
	var sum float64
	for i := range actual {
		denom := math.Abs(actual[i])
		if denom < mapeEpsilon {
			denom = mapeEpsilon
		}
		sum += math.Abs(predicted[i]-actual[i]) / denom
	}
	return sum / float64(len(actual)) * 100
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
