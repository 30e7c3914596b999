package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"SpotCast/internal/domain/models"
	"SpotCast/internal/domain/repository"
	"SpotCast/pkg/logger"
)

const versionTimeLayout = "20060102150405"

// Registry persists winning models: the artifact (with its JSON sidecar)
// first, the metadata row second. The row commit is the transaction
// boundary; an orphaned artifact without a row is acceptable, a row
// without a verified artifact is not.
type Registry struct {
	runs      repository.RunStore
	artifacts repository.ArtifactStore
	root      string

	log *logger.Logger
	now func() time.Time
}

// Option configures the registry.
type Option func(*Registry)

// WithClock overrides the version timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a registry rooted at the given artifact directory.
func New(log *logger.Logger, runs repository.RunStore, artifacts repository.ArtifactStore, artifactRoot string, opts ...Option) *Registry {
	r := &Registry{
		runs:      runs,
		artifacts: artifacts,
		root:      artifactRoot,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Persist stores a trained model and commits its run row. A version
// collision gets one retry with a freshly generated version; a second
// collision is reported to the caller.
func (r *Registry) Persist(ctx context.Context, commodity, region string, model models.Predictor, rmse, mape float64, horizon int) (*models.TrainingRun, error) {
	run, err := r.persistOnce(ctx, commodity, region, model, rmse, mape, horizon, r.now())
	if errors.Is(err, models.ErrDuplicateVersion) {
		r.log.Warn("model version collision, retrying with fresh timestamp",
			logger.String("commodity", commodity),
			logger.String("region", region))
		return r.persistOnce(ctx, commodity, region, model, rmse, mape, horizon, r.now().Add(time.Second))
	}
	return run, err
}

func (r *Registry) persistOnce(ctx context.Context, commodity, region string, model models.Predictor, rmse, mape float64, horizon int, at time.Time) (*models.TrainingRun, error) {
	version := Version(model.Name(), region, at)
	path := r.ArtifactPath(commodity, region, version)

	meta := models.ArtifactMeta{
		RMSE:      rmse,
		MAPE:      mape,
		Horizon:   horizon,
		Commodity: commodity,
		Region:    region,
		Version:   version,
		ModelName: model.Name(),
	}
	if err := r.artifacts.Save(path, model, meta); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTrainingPersistenceFailed, err)
	}
	if !r.artifacts.Exists(path) {
		return nil, fmt.Errorf("%w: artifact missing after write: %s", models.ErrTrainingPersistenceFailed, path)
	}

	run := &models.TrainingRun{
		Commodity:    commodity,
		Region:       region,
		ModelName:    model.Name(),
		ModelVersion: version,
		RMSE:         rmse,
		MAPE:         mape,
		ArtifactPath: path,
		TrainedAt:    at.UTC(),
	}
	if err := r.runs.Insert(ctx, run); err != nil {
		return nil, err
	}

	r.log.Info("training run persisted",
		logger.String("commodity", commodity),
		logger.String("region", region),
		logger.String("version", version),
		logger.Float64("rmse", rmse))
	return run, nil
}

// Latest returns the most recent run for a pair, or nil if none exists.
func (r *Registry) Latest(ctx context.Context, commodity, region string) (*models.TrainingRun, error) {
	return r.runs.Latest(ctx, commodity, region)
}

// LoadModel reloads the persisted artifact of a run.
func (r *Registry) LoadModel(run *models.TrainingRun) (models.Predictor, models.ArtifactMeta, error) {
	return r.artifacts.Load(run.ArtifactPath)
}

// ArtifactPath derives the artifact location for a version.
func (r *Registry) ArtifactPath(commodity, region, version string) string {
	return filepath.Join(r.root, commodity, region, version+".gob")
}

// Version builds the globally unique version identifier.
func Version(modelName, region string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s", modelName, region, at.UTC().Format(versionTimeLayout))
}
