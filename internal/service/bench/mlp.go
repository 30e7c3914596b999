package bench

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// MLP is a small one-hidden-layer feed-forward regressor trained with
// full-batch gradient descent on standardized inputs and target.
type MLP struct {
	Hidden int
	Epochs int
	LR     float64
	Seed   int64

	// Learned parameters, exported for gob.
	W1 [][]float64
	B1 []float64
	W2 []float64
	B2 float64

	// Standardization parameters.
	XMean []float64
	XStd  []float64
	YMean float64
	YStd  float64
}

// NewMLP creates an unfitted network.
func NewMLP(hidden, epochs int, lr float64, seed int64) *MLP {
	if hidden < 1 {
		hidden = 16
	}
	if epochs < 1 {
		epochs = 300
	}
	if lr <= 0 {
		lr = 0.01
	}
	return &MLP{Hidden: hidden, Epochs: epochs, LR: lr, Seed: seed}
}

func (m *MLP) Name() string { return "mlp" }

// Fit trains the network.
func (m *MLP) Fit(x [][]float64, y []float64) error {
	n := len(x)
	if n == 0 || n != len(y) {
		return fmt.Errorf("mlp: bad training shape %d/%d", n, len(y))
	}
	d := len(x[0])

	m.fitScalers(x, y)
	xs := m.scaleX(x)
	ys := make([]float64, n)
	for i, v := range y {
		ys[i] = (v - m.YMean) / m.YStd
	}

	rng := rand.New(rand.NewSource(m.Seed))
	scale := math.Sqrt(2 / float64(d))
	m.W1 = make([][]float64, m.Hidden)
	m.B1 = make([]float64, m.Hidden)
	m.W2 = make([]float64, m.Hidden)
	for h := 0; h < m.Hidden; h++ {
		m.W1[h] = make([]float64, d)
		for j := 0; j < d; j++ {
			m.W1[h][j] = rng.NormFloat64() * scale
		}
		m.W2[h] = rng.NormFloat64() * math.Sqrt(1/float64(m.Hidden))
	}
	m.B2 = 0

	hidden := make([][]float64, n)
	for i := range hidden {
		hidden[i] = make([]float64, m.Hidden)
	}
	grad2 := make([]float64, m.Hidden)
	grad1 := make([][]float64, m.Hidden)
	for h := range grad1 {
		grad1[h] = make([]float64, d)
	}
	gradB1 := make([]float64, m.Hidden)

	for epoch := 0; epoch < m.Epochs; epoch++ {
		var gradB2 float64
		for h := 0; h < m.Hidden; h++ {
			grad2[h] = 0
			gradB1[h] = 0
			for j := 0; j < d; j++ {
				grad1[h][j] = 0
			}
		}

		for i := 0; i < n; i++ {
			out := m.B2
			for h := 0; h < m.Hidden; h++ {
				z := m.B1[h]
				for j := 0; j < d; j++ {
					z += m.W1[h][j] * xs[i][j]
				}
				a := math.Tanh(z)
				hidden[i][h] = a
				out += m.W2[h] * a
			}

			delta := 2 * (out - ys[i]) / float64(n)
			gradB2 += delta
			for h := 0; h < m.Hidden; h++ {
				a := hidden[i][h]
				grad2[h] += delta * a
				dh := delta * m.W2[h] * (1 - a*a)
				gradB1[h] += dh
				for j := 0; j < d; j++ {
					grad1[h][j] += dh * xs[i][j]
				}
			}
		}

		m.B2 -= m.LR * gradB2
		for h := 0; h < m.Hidden; h++ {
			m.W2[h] -= m.LR * grad2[h]
			m.B1[h] -= m.LR * gradB1[h]
			for j := 0; j < d; j++ {
				m.W1[h][j] -= m.LR * grad1[h][j]
			}
		}
	}
	return nil
}

// Predict runs the forward pass and de-standardizes the output.
func (m *MLP) Predict(x [][]float64) ([]float64, error) {
	if m.W1 == nil {
		return nil, fmt.Errorf("mlp: not fitted")
	}
	xs := m.scaleX(x)
	out := make([]float64, len(xs))
	for i, row := range xs {
		v := m.B2
		for h := 0; h < m.Hidden; h++ {
			z := m.B1[h]
			for j, f := range row {
				z += m.W1[h][j] * f
			}
			v += m.W2[h] * math.Tanh(z)
		}
		out[i] = v*m.YStd + m.YMean
	}
	return out, nil
}

func (m *MLP) fitScalers(x [][]float64, y []float64) {
	d := len(x[0])
	m.XMean = make([]float64, d)
	m.XStd = make([]float64, d)
	col := make([]float64, len(x))
	for j := 0; j < d; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		m.XMean[j] = stat.Mean(col, nil)
		m.XStd[j] = stat.StdDev(col, nil)
		if m.XStd[j] == 0 || math.IsNaN(m.XStd[j]) {
			m.XStd[j] = 1
		}
	}
	m.YMean = stat.Mean(y, nil)
	m.YStd = stat.StdDev(y, nil)
	if m.YStd == 0 || math.IsNaN(m.YStd) {
		m.YStd = 1
	}
}

func (m *MLP) scaleX(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		s := make([]float64, len(row))
		for j, v := range row {
			if j < len(m.XMean) {
				s[j] = (v - m.XMean[j]) / m.XStd[j]
			} else {
				s[j] = v
			}
		}
		out[i] = s
	}
	return out
}
