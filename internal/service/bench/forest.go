package bench

import (
	"fmt"
	"math/rand"
)

// Forest is a bagged ensemble of regression trees.
type Forest struct {
	NumTrees int
	MaxDepth int
	MinLeaf  int
	Seed     int64
	Trees    []*Tree
}

// NewForest creates an unfitted random forest.
func NewForest(numTrees, maxDepth int, seed int64) *Forest {
	if numTrees < 1 {
		numTrees = 50
	}
	if maxDepth < 1 {
		maxDepth = 8
	}
	return &Forest{NumTrees: numTrees, MaxDepth: maxDepth, MinLeaf: 2, Seed: seed}
}

func (f *Forest) Name() string { return "random_forest" }

// Fit trains each tree on a bootstrap resample of the training set.
func (f *Forest) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("random_forest: bad training shape %d/%d", len(x), len(y))
	}

	rng := rand.New(rand.NewSource(f.Seed))
	n := len(y)
	f.Trees = make([]*Tree, 0, f.NumTrees)

	for t := 0; t < f.NumTrees; t++ {
		bx := make([][]float64, n)
		by := make([]float64, n)
		for i := 0; i < n; i++ {
			j := rng.Intn(n)
			bx[i] = x[j]
			by[i] = y[j]
		}
		tree := NewTree(f.MaxDepth, f.MinLeaf)
		if err := tree.Fit(bx, by); err != nil {
			return fmt.Errorf("random_forest tree %d: %w", t, err)
		}
		f.Trees = append(f.Trees, tree)
	}
	return nil
}

// Predict averages the member trees.
func (f *Forest) Predict(x [][]float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("random_forest: not fitted")
	}
	out := make([]float64, len(x))
	for _, tree := range f.Trees {
		preds, err := tree.Predict(x)
		if err != nil {
			return nil, err
		}
		for i, p := range preds {
			out[i] += p
		}
	}
	for i := range out {
		out[i] /= float64(len(f.Trees))
	}
	return out, nil
}
