package repository

import (
	"context"
	"time"

	"SpotCast/internal/domain/models"
)

// RateSource fetches a currency→rate mapping relative to an arbitrary base.
// Implementations are tried in a fixed priority order by the rate cache;
// each attempt is independently guarded and a failure moves to the next source.
type RateSource interface {
	Name() string
	Fetch(ctx context.Context) (map[string]float64, error)
}

// MarketFeed is the upstream OHLCV provider for one ticker symbol.
type MarketFeed interface {
	// FetchPeriod downloads the full requested period (cold cache path).
	FetchPeriod(ctx context.Context, symbol, period string) (models.Series, error)
	// FetchSince downloads bars strictly after the given date (delta path).
	FetchSince(ctx context.Context, symbol string, since time.Time) (models.Series, error)
}

// BarStore persists merged historical series per (commodity, region).
type BarStore interface {
	Load(ctx context.Context, commodity, region string) (models.Series, error)
	Save(ctx context.Context, commodity, region string, bars models.Series) error
}

// RunStore persists training-run metadata. Insert must fail with
// models.ErrDuplicateVersion on a model_version uniqueness violation and
// models.ErrTrainingPersistenceFailed on any other storage error.
type RunStore interface {
	Insert(ctx context.Context, run *models.TrainingRun) error
	Latest(ctx context.Context, commodity, region string) (*models.TrainingRun, error)
}

// ArtifactStore persists and reloads (model, metadata) pairs. Artifacts are
// read-only once written.
type ArtifactStore interface {
	Save(path string, model models.Predictor, meta models.ArtifactMeta) error
	Load(path string) (models.Predictor, models.ArtifactMeta, error)
	Exists(path string) bool
}

// EventPublisher emits lifecycle events for downstream consumers. Publish
// failures never fail the originating operation.
type EventPublisher interface {
	TrainingCompleted(ctx context.Context, run *models.TrainingRun) error
	Close() error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordLatency(op string, seconds float64)
	RecordError(kind string)
	RecordPrediction(commodity, region string)
	RecordTraining(commodity, region, model string)
	RecordCache(cache string, hit bool)
	RecordSourceFailure(source string)
	RecordLastPrice(commodity, region string, price float64)
}
