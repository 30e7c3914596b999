package usecase

import (
	"context"
	"fmt"
	"time"

	"SpotCast/internal/domain/models"
	"SpotCast/internal/domain/repository"
	"SpotCast/internal/service/bench"
	"SpotCast/internal/service/convert"
	"SpotCast/internal/service/features"
	"SpotCast/internal/service/history"
	"SpotCast/internal/service/rates"
	"SpotCast/internal/service/registry"
	"SpotCast/pkg/logger"
)

const (
	defaultMinTrainingRows = 180
	trainingPeriod         = "5y"

	bullFactor = 1.06
	bearFactor = 0.94
)

// Forecaster composes the pipeline: history → features → bench →
// registry → rates/convert. Training is always synchronous and
// caller-triggered; a prediction for a never-trained pair pays the full
// training latency on its first request.
type Forecaster struct {
	history  *history.Store
	rates    *rates.Cache
	bench    *bench.Bench
	registry *registry.Registry
	events   repository.EventPublisher
	metrics  repository.Metrics

	log     *logger.Logger
	minRows int
}

// Option configures the forecaster.
type Option func(*Forecaster)

// WithMinTrainingRows overrides the minimum supervised row count.
func WithMinTrainingRows(n int) Option {
	return func(f *Forecaster) {
		if n > 0 {
			f.minRows = n
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m repository.Metrics) Option {
	return func(f *Forecaster) {
		f.metrics = m
	}
}

// New creates the forecast orchestrator.
func New(
	log *logger.Logger,
	hist *history.Store,
	rateCache *rates.Cache,
	modelBench *bench.Bench,
	reg *registry.Registry,
	events repository.EventPublisher,
	opts ...Option,
) *Forecaster {
	f := &Forecaster{
		history:  hist,
		rates:    rateCache,
		bench:    modelBench,
		registry: reg,
		events:   events,
		log:      log,
		minRows:  defaultMinTrainingRows,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Train runs a full training cycle for one pair and persists the winner.
func (f *Forecaster) Train(ctx context.Context, commodity, region string, horizon int) (*models.TrainResponse, error) {
	start := time.Now()
	reg, err := models.NormalizeRegion(region)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateCommodity(commodity); err != nil {
		return nil, err
	}
	if horizon < 1 {
		horizon = 1
	}

	x, y, err := f.supervised(ctx, commodity, reg.Name, horizon)
	if err != nil {
		return nil, err
	}

	results, err := f.bench.Benchmark(x, y)
	if err != nil {
		return nil, err
	}
	best := results[0]

	// The persisted score is the conservative walk-forward average, not
	// the single-split number that picked the winner.
	rmse, mape, err := f.bench.WalkForward(x, y)
	if err != nil {
		rmse, mape = best.RMSE, best.MAPE
	}

	// Refit the winner on the full supervised set before persisting; the
	// split-trained instance stays as fallback if the refit fails.
	if err := best.Model.Fit(x, y); err != nil {
		f.log.Warn("winner refit failed, persisting split-trained model",
			logger.String("model", best.Name),
			logger.Error(err))
	}

	run, err := f.registry.Persist(ctx, commodity, reg.Name, best.Model, rmse, mape, horizon)
	if err != nil {
		return nil, err
	}

	if f.events != nil {
		if err := f.events.TrainingCompleted(ctx, run); err != nil {
			f.log.Warn("training event publish failed", logger.Error(err))
		}
	}
	if f.metrics != nil {
		f.metrics.RecordTraining(commodity, reg.Name, run.ModelName)
		f.metrics.RecordLatency("train", time.Since(start).Seconds())
	}

	f.log.Info("training cycle complete",
		logger.String("commodity", commodity),
		logger.String("region", reg.Name),
		logger.String("model", run.ModelName),
		logger.Float64("rmse", run.RMSE),
		logger.Float64("mape", run.MAPE),
		logger.Duration("took", time.Since(start)))

	return &models.TrainResponse{
		Commodity:    commodity,
		Region:       reg.Name,
		BestModel:    run.ModelName,
		ModelVersion: run.ModelVersion,
		RMSE:         run.RMSE,
		MAPE:         run.MAPE,
	}, nil
}

// Predict serves a point forecast with confidence bounds and scenario
// variants, lazily training when the pair has no model yet.
func (f *Forecaster) Predict(ctx context.Context, commodity, region string, horizon int) (*models.PredictionResponse, error) {
	start := time.Now()
	reg, err := models.NormalizeRegion(region)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateCommodity(commodity); err != nil {
		return nil, err
	}
	if horizon < 1 {
		horizon = 1
	}

	model, meta, err := f.loadOrTrain(ctx, commodity, reg.Name, horizon)
	if err != nil {
		return nil, err
	}

	// Features are rebuilt exactly as in training; the effective horizon
	// is the larger of the recorded and the requested one.
	effHorizon := meta.Horizon
	if horizon > effHorizon {
		effHorizon = horizon
	}

	frame, err := f.frame(ctx, commodity, reg.Name)
	if err != nil {
		return nil, err
	}
	row := features.LatestRow(frame)
	if row == nil {
		return nil, models.ErrInsufficientData
	}

	preds, err := model.Predict([][]float64{row})
	if err != nil {
		return nil, fmt.Errorf("model predict: %w", err)
	}
	point := preds[0]

	// Uncertainty width is floored at 1% of the point forecast so an
	// anomalously small RMSE cannot produce overconfident bands. Bounds
	// are derived before regional conversion.
	delta := 0.01 * point
	if meta.RMSE > delta {
		delta = meta.RMSE
	}

	fxRates, err := f.rates.GetRates(ctx)
	if err != nil {
		return nil, err
	}

	regionalPoint, err := f.toRegional(point, reg.Name, fxRates)
	if err != nil {
		return nil, err
	}
	lower, err := f.toRegional(point-delta, reg.Name, fxRates)
	if err != nil {
		return nil, err
	}
	upper, err := f.toRegional(point+delta, reg.Name, fxRates)
	if err != nil {
		return nil, err
	}
	bull, err := f.toRegional(point*bullFactor, reg.Name, fxRates)
	if err != nil {
		return nil, err
	}
	bear, err := f.toRegional(point*bearFactor, reg.Name, fxRates)
	if err != nil {
		return nil, err
	}

	if f.metrics != nil {
		f.metrics.RecordPrediction(commodity, reg.Name)
		f.metrics.RecordLastPrice(commodity, reg.Name, regionalPoint)
		f.metrics.RecordLatency("predict", time.Since(start).Seconds())
	}

	return &models.PredictionResponse{
		Commodity:          commodity,
		Region:             reg.Name,
		Currency:           reg.Currency,
		Unit:               reg.Unit,
		Horizon:            effHorizon,
		PointForecast:      regionalPoint,
		ConfidenceInterval: [2]float64{lower, upper},
		Formatted:          convert.FormatPrice(regionalPoint, reg),
		Scenario:           "base",
		ScenarioForecasts: map[string]float64{
			"base": regionalPoint,
			"bull": bull,
			"bear": bear,
		},
		ModelUsed: meta.Version,
	}, nil
}

// Historical returns the merged series with prices converted to the
// region's display currency and unit.
func (f *Forecaster) Historical(ctx context.Context, commodity, region, period string) (*models.HistoricalResponse, error) {
	reg, err := models.NormalizeRegion(region)
	if err != nil {
		return nil, err
	}
	series, err := f.history.GetHistorical(ctx, commodity, reg.Name, period)
	if err != nil {
		return nil, err
	}
	fxRates, err := f.rates.GetRates(ctx)
	if err != nil {
		return nil, err
	}

	data := make([]models.HistoricalPoint, 0, len(series))
	for _, b := range series {
		open, err := f.toRegional(b.Open, reg.Name, fxRates)
		if err != nil {
			return nil, err
		}
		high, err := f.toRegional(b.High, reg.Name, fxRates)
		if err != nil {
			return nil, err
		}
		low, err := f.toRegional(b.Low, reg.Name, fxRates)
		if err != nil {
			return nil, err
		}
		closePrice, err := f.toRegional(b.Close, reg.Name, fxRates)
		if err != nil {
			return nil, err
		}
		data = append(data, models.HistoricalPoint{
			Date:   b.Date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: b.Volume,
		})
	}

	return &models.HistoricalResponse{
		Commodity: commodity,
		Region:    reg.Name,
		Currency:  reg.Currency,
		Unit:      reg.Unit,
		Rows:      len(data),
		Data:      data,
	}, nil
}

// LivePrices returns the latest close of every commodity in the
// requested region's display units. An empty region serves every
// supported region.
func (f *Forecaster) LivePrices(ctx context.Context, region string) ([]models.LivePrice, error) {
	regions, err := f.resolveRegions(region)
	if err != nil {
		return nil, err
	}
	fxRates, err := f.rates.GetRates(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.LivePrice, 0, len(models.Commodities())*len(regions))
	for _, commodity := range models.Commodities() {
		for _, reg := range regions {
			series, err := f.history.GetHistorical(ctx, commodity, reg.Name, "1m")
			if err != nil {
				f.log.Warn("live price unavailable",
					logger.String("commodity", commodity),
					logger.String("region", reg.Name),
					logger.Error(err))
				continue
			}
			if len(series) == 0 {
				continue
			}
			last := series[len(series)-1]
			price, err := f.toRegional(last.Close, reg.Name, fxRates)
			if err != nil {
				return nil, err
			}
			out = append(out, models.LivePrice{
				Commodity: commodity,
				Region:    reg.Name,
				Currency:  reg.Currency,
				Unit:      reg.Unit,
				LivePrice: price,
				Formatted: convert.FormatPrice(price, reg),
				Source:    models.CommoditySymbols[commodity],
				Timestamp: last.Date,
			})
		}
	}
	if len(out) == 0 {
		return nil, models.ErrMarketDataUnavailable
	}
	return out, nil
}

func (f *Forecaster) resolveRegions(region string) ([]models.Region, error) {
	if region != "" {
		reg, err := models.NormalizeRegion(region)
		if err != nil {
			return nil, err
		}
		return []models.Region{reg}, nil
	}
	names := models.RegionNames()
	regions := make([]models.Region, 0, len(names))
	for _, name := range names {
		reg, err := models.NormalizeRegion(name)
		if err != nil {
			return nil, err
		}
		regions = append(regions, reg)
	}
	return regions, nil
}

// LatestMetrics returns the most recent training run for a pair.
func (f *Forecaster) LatestMetrics(ctx context.Context, commodity, region string) (*models.TrainingRun, error) {
	reg, err := models.NormalizeRegion(region)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateCommodity(commodity); err != nil {
		return nil, err
	}
	run, err := f.registry.Latest(ctx, commodity, reg.Name)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, models.ErrNoModelTrained
	}
	return run, nil
}

// loadOrTrain resolves the serving model for a pair, triggering a
// synchronous training cycle when none exists yet.
func (f *Forecaster) loadOrTrain(ctx context.Context, commodity, region string, horizon int) (models.Predictor, models.ArtifactMeta, error) {
	run, err := f.registry.Latest(ctx, commodity, region)
	if err != nil {
		return nil, models.ArtifactMeta{}, err
	}
	if run == nil {
		f.log.Info("no trained model, training lazily",
			logger.String("commodity", commodity),
			logger.String("region", region))
		if _, err := f.Train(ctx, commodity, region, horizon); err != nil {
			return nil, models.ArtifactMeta{}, err
		}
		run, err = f.registry.Latest(ctx, commodity, region)
		if err != nil {
			return nil, models.ArtifactMeta{}, err
		}
		if run == nil {
			return nil, models.ArtifactMeta{}, models.ErrNoModelTrained
		}
	}

	model, meta, err := f.registry.LoadModel(run)
	if err != nil {
		// A row without a readable artifact; retrain once to heal.
		f.log.Warn("artifact reload failed, retraining",
			logger.String("version", run.ModelVersion),
			logger.Error(err))
		if _, terr := f.Train(ctx, commodity, region, horizon); terr != nil {
			return nil, models.ArtifactMeta{}, terr
		}
		run, err = f.registry.Latest(ctx, commodity, region)
		if err != nil || run == nil {
			return nil, models.ArtifactMeta{}, models.ErrNoModelTrained
		}
		return f.registry.LoadModel(run)
	}
	return model, meta, nil
}

// supervised builds the (X, y) pair for training and enforces the
// minimum-row backpressure threshold.
func (f *Forecaster) supervised(ctx context.Context, commodity, region string, horizon int) ([][]float64, []float64, error) {
	frame, err := f.frame(ctx, commodity, region)
	if err != nil {
		return nil, nil, err
	}
	x, y, err := features.MakeSupervised(frame, horizon)
	if err != nil {
		return nil, nil, err
	}
	if len(y) < f.minRows {
		return nil, nil, fmt.Errorf("%w: %d supervised rows, need %d",
			models.ErrInsufficientData, len(y), f.minRows)
	}
	return x, y, nil
}

// frame is the one feature construction path shared by training and
// prediction.
func (f *Forecaster) frame(ctx context.Context, commodity, region string) (*models.FeatureFrame, error) {
	series, err := f.history.GetHistorical(ctx, commodity, region, trainingPeriod)
	if err != nil {
		return nil, err
	}
	frame, err := features.Build(series)
	if err != nil {
		return nil, err
	}
	features.AddCalendar(frame)
	f.addMacroOverlays(ctx, frame, region)
	return frame, nil
}

// addMacroOverlays joins the FX-driven macro proxies. The rate degrades
// to the neutral 1.0 when no quote is available, so training and serving
// frames always share one column set.
func (f *Forecaster) addMacroOverlays(ctx context.Context, frame *models.FeatureFrame, region string) {
	fxRate := 1.0
	reg, err := models.NormalizeRegion(region)
	if err != nil {
		return
	}
	if fxRates, rerr := f.rates.GetRates(ctx); rerr == nil {
		if v, ok := fxRates[reg.Currency]; ok {
			fxRate = v
		}
	} else {
		f.log.Warn("fx rates unavailable, neutral macro overlay",
			logger.String("region", reg.Name),
			logger.Error(rerr))
	}
	features.AddMacro(frame, fxRate)
}

// toRegional converts a price in the feed's native unit (base currency
// per troy ounce) through the canonical per-gram representation into the
// region's display price.
func (f *Forecaster) toRegional(native float64, region string, fxRates map[string]float64) (float64, error) {
	return convert.Convert(convert.FromTroyOunce(native), region, fxRates)
}
