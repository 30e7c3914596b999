package models

import "time"

// Predictor is the read side of a trained model: everything prediction
// serving needs after an artifact reload.
type Predictor interface {
	Name() string
	Predict(x [][]float64) ([]float64, error)
}

// TrainingRun is the persisted record of one completed training cycle.
// Rows are append-only; ModelVersion is unique across all rows, enforced by
// the registry's storage layer.
type TrainingRun struct {
	ID           int64     `json:"id"`
	Commodity    string    `json:"commodity"`
	Region       string    `json:"region"`
	ModelName    string    `json:"model_name"`
	ModelVersion string    `json:"model_version"`
	RMSE         float64   `json:"rmse"`
	MAPE         float64   `json:"mape"`
	ArtifactPath string    `json:"artifact_path"`
	TrainedAt    time.Time `json:"trained_at"`
}

// ArtifactMeta is the JSON sidecar written next to each model artifact.
type ArtifactMeta struct {
	RMSE      float64 `json:"rmse"`
	MAPE      float64 `json:"mape"`
	Horizon   int     `json:"horizon"`
	Commodity string  `json:"commodity"`
	Region    string  `json:"region"`
	Version   string  `json:"version"`
	ModelName string  `json:"model_name"`
}
