package bench

import "fmt"

// GradientBoost is a gradient-boosted ensemble of shallow regression
// trees fitted to residuals.
type GradientBoost struct {
	NumStages    int
	LearningRate float64
	MaxDepth     int
	InitValue    float64
	Trees        []*Tree
}

// NewGradientBoost creates an unfitted boosted ensemble.
func NewGradientBoost(numStages int, learningRate float64, maxDepth int) *GradientBoost {
	if numStages < 1 {
		numStages = 100
	}
	if learningRate <= 0 {
		learningRate = 0.1
	}
	if maxDepth < 1 {
		maxDepth = 3
	}
	return &GradientBoost{NumStages: numStages, LearningRate: learningRate, MaxDepth: maxDepth}
}

func (g *GradientBoost) Name() string { return "gradient_boost" }

// Fit boosts shallow trees against the running residual.
func (g *GradientBoost) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("gradient_boost: bad training shape %d/%d", len(x), len(y))
	}

	var sum float64
	for _, v := range y {
		sum += v
	}
	g.InitValue = sum / float64(len(y))

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = g.InitValue
	}
	residual := make([]float64, len(y))
	g.Trees = make([]*Tree, 0, g.NumStages)

	for stage := 0; stage < g.NumStages; stage++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}
		tree := NewTree(g.MaxDepth, 3)
		if err := tree.Fit(x, residual); err != nil {
			return fmt.Errorf("gradient_boost stage %d: %w", stage, err)
		}
		g.Trees = append(g.Trees, tree)

		step, err := tree.Predict(x)
		if err != nil {
			return err
		}
		for i := range pred {
			pred[i] += g.LearningRate * step[i]
		}
	}
	return nil
}

// Predict sums the staged trees on top of the initial value.
func (g *GradientBoost) Predict(x [][]float64) ([]float64, error) {
	if len(g.Trees) == 0 {
		return nil, fmt.Errorf("gradient_boost: not fitted")
	}
	out := make([]float64, len(x))
	for i := range out {
		out[i] = g.InitValue
	}
	for _, tree := range g.Trees {
		step, err := tree.Predict(x)
		if err != nil {
			return nil, err
		}
		for i, s := range step {
			out[i] += g.LearningRate * s
		}
	}
	return out, nil
}
