package bench

import (
	"bytes"
	"encoding/gob"
	"errors"
	"math"
	"testing"

	"SpotCast/internal/domain/models"
	"SpotCast/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// trendingData builds a learnable series: y is a noiseless function of x.
func trendingData(n int) ([][]float64, []float64) {
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i)
		x[i] = []float64{t, math.Sin(t / 5), t * t / 100}
		y[i] = 100 + 0.5*t + 5*math.Sin(t/5)
	}
	return x, y
}

type failingModel struct{}

func (f *failingModel) Name() string { return "failing" }
func (f *failingModel) Fit(x [][]float64, y []float64) error {
	return errors.New("always fails")
}
func (f *failingModel) Predict(x [][]float64) ([]float64, error) {
	return nil, errors.New("never fitted")
}

// probeModel records the targets it was trained on.
type probeModel struct {
	trainY []float64
}

func (p *probeModel) Name() string { return "probe" }
func (p *probeModel) Fit(x [][]float64, y []float64) error {
	p.trainY = append([]float64(nil), y...)
	return nil
}
func (p *probeModel) Predict(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i := range out {
		out[i] = p.trainY[len(p.trainY)-1]
	}
	return out, nil
}

func TestBenchmarkRanksAscendingByRMSE(t *testing.T) {
	x, y := trendingData(150)
	b := New(testLogger(t))

	results, err := b.Benchmark(x, y)
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if len(results) < 2 {
		t.Fatalf("expected multiple survivors, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].RMSE < results[i-1].RMSE {
			t.Fatalf("not sorted ascending at %d", i)
		}
	}
	for _, r := range results {
		if r.Model == nil || r.Name == "" {
			t.Fatalf("result missing model or name: %+v", r)
		}
		if math.IsNaN(r.MAPE) || r.MAPE < 0 {
			t.Fatalf("bad MAPE %v for %s", r.MAPE, r.Name)
		}
	}
}

func TestBenchmarkTreeBeatsFlatBaseline(t *testing.T) {
	// Stationary target driven purely by the features, so a tree can
	// interpolate on the holdout while a flat level cannot.
	n := 200
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		s := math.Sin(float64(i) / 5)
		x[i] = []float64{s, math.Cos(float64(i) / 5)}
		y[i] = 100 + 20*s
	}
	b := New(testLogger(t), WithRoster(func() []Regressor {
		return []Regressor{NewTree(6, 3), NewSeasonalNaive(5)}
	}))

	results, err := b.Benchmark(x, y)
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if results[0].Name != "decision_tree" {
		t.Fatalf("expected the tree to beat the flat baseline on a trend, got %s first", results[0].Name)
	}
}

func TestBenchmarkFailSoft(t *testing.T) {
	x, y := trendingData(100)
	b := New(testLogger(t), WithRoster(func() []Regressor {
		return []Regressor{&failingModel{}, NewSeasonalNaive(5)}
	}))

	results, err := b.Benchmark(x, y)
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if len(results) != 1 || results[0].Name != "seasonal_naive" {
		t.Fatalf("failing candidate must be excluded, got %+v", results)
	}
}

func TestBenchmarkAllFailed(t *testing.T) {
	x, y := trendingData(100)
	b := New(testLogger(t), WithRoster(func() []Regressor {
		return []Regressor{&failingModel{}}
	}))

	_, err := b.Benchmark(x, y)
	if !errors.Is(err, models.ErrNoModelTrained) {
		t.Fatalf("expected ErrNoModelTrained, got %v", err)
	}
}

func TestBenchmarkSplitIsNotShuffled(t *testing.T) {
	x, y := trendingData(100)
	probe := &probeModel{}
	b := New(testLogger(t), WithRoster(func() []Regressor {
		return []Regressor{probe}
	}))

	if _, err := b.Benchmark(x, y); err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if len(probe.trainY) != 80 {
		t.Fatalf("expected 80%% train rows, got %d", len(probe.trainY))
	}
	// Time order preserved: the training targets are exactly the head.
	for i, v := range probe.trainY {
		if v != y[i] {
			t.Fatalf("train row %d out of order", i)
		}
	}
}

func TestWalkForwardSmallDatasetFallsBack(t *testing.T) {
	x, y := trendingData(50)
	b := New(testLogger(t), WithRoster(func() []Regressor {
		return []Regressor{NewSeasonalNaive(5)}
	}))

	rmse, mape, err := b.WalkForward(x, y)
	if err != nil {
		t.Fatalf("walk-forward: %v", err)
	}
	wantRMSE, wantMAPE, err := b.singleSplitScore(x, y)
	if err != nil {
		t.Fatalf("single split: %v", err)
	}
	if rmse != wantRMSE || mape != wantMAPE {
		t.Fatalf("small dataset must fall back to the single split score")
	}
}

func TestWalkForwardAveragesWindows(t *testing.T) {
	x, y := trendingData(200)
	b := New(testLogger(t), WithRoster(func() []Regressor {
		return []Regressor{NewTree(6, 3)}
	}))

	rmse, mape, err := b.WalkForward(x, y)
	if err != nil {
		t.Fatalf("walk-forward: %v", err)
	}
	if math.IsNaN(rmse) || rmse <= 0 {
		t.Fatalf("bad walk-forward rmse %v", rmse)
	}
	if math.IsNaN(mape) || mape < 0 {
		t.Fatalf("bad walk-forward mape %v", mape)
	}
}

func TestWalkForwardAllWindowsFailed(t *testing.T) {
	x, y := trendingData(200)
	b := New(testLogger(t), WithRoster(func() []Regressor {
		return []Regressor{&failingModel{}}
	}))

	_, _, err := b.WalkForward(x, y)
	if !errors.Is(err, models.ErrNoModelTrained) {
		t.Fatalf("expected ErrNoModelTrained, got %v", err)
	}
}

func TestMAPEIsPercentage(t *testing.T) {
	actual := []float64{100, 200}
	predicted := []float64{110, 180}
	got := MAPE(actual, predicted)
	if math.Abs(got-10) > 1e-9 {
		t.Fatalf("expected 10%%, got %v", got)
	}
}

func TestRMSE(t *testing.T) {
	got := RMSE([]float64{1, 2, 3}, []float64{1, 2, 5})
	want := math.Sqrt(4.0 / 3.0)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("rmse %v, want %v", got, want)
	}
}

func TestGobRoundTripPreservesPredictions(t *testing.T) {
	x, y := trendingData(120)
	model := NewForest(10, 6, 1)
	if err := model.Fit(x, y); err != nil {
		t.Fatalf("fit: %v", err)
	}

	var holder models.Predictor = model
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&holder); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded models.Predictor
	if err := gob.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}

	probe := x[:5]
	want, err := model.Predict(probe)
	if err != nil {
		t.Fatalf("predict original: %v", err)
	}
	got, err := decoded.Predict(probe)
	if err != nil {
		t.Fatalf("predict decoded: %v", err)
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > 1e-12 {
			t.Fatalf("prediction drifted after round trip at %d", i)
		}
	}
}
