package bench

import (
	"fmt"
	"sort"
)

// TreeNode is one node of a regression tree. Exported fields keep the
// type gob-encodable for artifact persistence.
type TreeNode struct {
	Leaf      bool
	Value     float64
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
}

// Tree is a CART regression tree grown by variance reduction.
type Tree struct {
	MaxDepth int
	MinLeaf  int
	Root     *TreeNode
}

// NewTree creates an unfitted regression tree.
func NewTree(maxDepth, minLeaf int) *Tree {
	if maxDepth < 1 {
		maxDepth = 6
	}
	if minLeaf < 1 {
		minLeaf = 3
	}
	return &Tree{MaxDepth: maxDepth, MinLeaf: minLeaf}
}

func (t *Tree) Name() string { return "decision_tree" }

// Fit grows the tree on the training set.
func (t *Tree) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("decision_tree: bad training shape %d/%d", len(x), len(y))
	}
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	t.Root = t.grow(x, y, idx, 0)
	return nil
}

// Predict returns one prediction per input row.
func (t *Tree) Predict(x [][]float64) ([]float64, error) {
	if t.Root == nil {
		return nil, fmt.Errorf("decision_tree: not fitted")
	}
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = t.Root.eval(row)
	}
	return out, nil
}

func (n *TreeNode) eval(row []float64) float64 {
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

func (t *Tree) grow(x [][]float64, y []float64, idx []int, depth int) *TreeNode {
	if depth >= t.MaxDepth || len(idx) < 2*t.MinLeaf {
		return &TreeNode{Leaf: true, Value: meanAt(y, idx)}
	}

	feature, threshold, ok := t.bestSplit(x, y, idx)
	if !ok {
		return &TreeNode{Leaf: true, Value: meanAt(y, idx)}
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < t.MinLeaf || len(right) < t.MinLeaf {
		return &TreeNode{Leaf: true, Value: meanAt(y, idx)}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      t.grow(x, y, left, depth+1),
		Right:     t.grow(x, y, right, depth+1),
	}
}

// bestSplit scans every feature with a sorted prefix-sum sweep and picks
// the split with the lowest total squared error.
func (t *Tree) bestSplit(x [][]float64, y []float64, idx []int) (int, float64, bool) {
	nFeatures := len(x[idx[0]])
	bestSSE := sseAt(y, idx)
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, len(idx))
	for f := 0; f < nFeatures; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return x[order[a]][f] < x[order[b]][f]
		})

		var sumL, sqL float64
		sumR, sqR := sums(y, order)
		for k := 0; k < len(order)-1; k++ {
			v := y[order[k]]
			sumL += v
			sqL += v * v
			sumR -= v
			sqR -= v * v

			// Can't split between equal feature values.
			if x[order[k]][f] == x[order[k+1]][f] {
				continue
			}
			nL, nR := float64(k+1), float64(len(order)-k-1)
			if int(nL) < t.MinLeaf || int(nR) < t.MinLeaf {
				continue
			}
			sse := (sqL - sumL*sumL/nL) + (sqR - sumR*sumR/nR)
			if sse < bestSSE-1e-12 {
				bestSSE = sse
				bestFeature = f
				bestThreshold = (x[order[k]][f] + x[order[k+1]][f]) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var s float64
	for _, i := range idx {
		s += y[i]
	}
	return s / float64(len(idx))
}

func sseAt(y []float64, idx []int) float64 {
	m := meanAt(y, idx)
	var s float64
	for _, i := range idx {
		d := y[i] - m
		s += d * d
	}
	return s
}

func sums(y []float64, idx []int) (sum, sq float64) {
	for _, i := range idx {
		sum += y[i]
		sq += y[i] * y[i]
	}
	return sum, sq
}
