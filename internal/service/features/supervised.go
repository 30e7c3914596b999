package features

import (
	"fmt"

	"SpotCast/internal/domain/models"
)

// MakeSupervised builds (X, y) for a regression horizon. The target is
// the close price shifted horizon steps into the future, which truncates
// the frame's tail by horizon rows.
func MakeSupervised(frame *models.FeatureFrame, horizon int) (x [][]float64, y []float64, err error) {
	if horizon < 1 {
		return nil, nil, fmt.Errorf("horizon must be >= 1, got %d", horizon)
	}
	closeIdx := frame.ColumnIndex("Close")
	if closeIdx < 0 {
		return nil, nil, fmt.Errorf("frame has no Close column")
	}

	n := frame.NumRows() - horizon
	if n <= 0 {
		return nil, nil, fmt.Errorf("%w: %d rows for horizon %d", models.ErrInsufficientData, frame.NumRows(), horizon)
	}

	x = make([][]float64, n)
	y = make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = append([]float64(nil), frame.Data[i]...)
		y[i] = frame.Data[i+horizon][closeIdx]
	}
	return x, y, nil
}

// LatestRow returns a copy of the most recent feature row, the input for
// a point forecast.
func LatestRow(frame *models.FeatureFrame) []float64 {
	if frame.NumRows() == 0 {
		return nil
	}
	return append([]float64(nil), frame.Data[frame.NumRows()-1]...)
}
