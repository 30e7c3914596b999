package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"SpotCast/internal/domain/models"
	"SpotCast/internal/domain/repository"
	"SpotCast/pkg/cache"
	"SpotCast/pkg/logger"
	"SpotCast/pkg/util"
)

// Store serves incrementally-refreshed historical series per
// (commodity, region). The first request for a pair downloads the full
// period; later requests fetch only the delta past the newest persisted
// bar. The merged series is persisted before it is returned.
type Store struct {
	feed     repository.MarketFeed
	bars     repository.BarStore
	snapshot cache.Service
	snapTTL  time.Duration

	log     *logger.Logger
	metrics repository.Metrics
}

// StoreOption configures the history store.
type StoreOption func(*Store)

// WithSnapshotCache attaches a fast snapshot layer in front of the bar
// store.
func WithSnapshotCache(c cache.Service, ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.snapshot = c
		if ttl > 0 {
			s.snapTTL = ttl
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m repository.Metrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore creates a history store over a market feed and a bar store.
func NewStore(log *logger.Logger, feed repository.MarketFeed, bars repository.BarStore, opts ...StoreOption) *Store {
	s := &Store{
		feed:    feed,
		bars:    bars,
		snapTTL: 15 * time.Minute,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetHistorical returns the merged series for a commodity/region pair over
// the requested lookback period.
func (s *Store) GetHistorical(ctx context.Context, commodity, region, period string) (models.Series, error) {
	if err := models.ValidateCommodity(commodity); err != nil {
		return nil, err
	}
	if _, err := models.NormalizeRegion(region); err != nil {
		return nil, err
	}
	if !util.ValidPeriod(period) {
		period = "1y"
	}
	symbol := models.CommoditySymbols[commodity]

	cached := s.loadCached(ctx, commodity, region)

	var fetched models.Series
	var err error
	if len(cached) == 0 {
		// Cold cache: the full period fetch is fatal on failure.
		fetched, err = s.feed.FetchPeriod(ctx, symbol, period)
		if err != nil {
			return nil, err
		}
	} else {
		fetched, err = s.feed.FetchSince(ctx, symbol, cached.LastDate())
		if err != nil {
			// Warm cache degrades instead of failing the caller.
			s.log.Warn("incremental fetch failed, serving cached series",
				logger.String("commodity", commodity),
				logger.Error(err))
			if s.metrics != nil {
				s.metrics.RecordError("history_refresh")
			}
			return s.slice(cached, period), nil
		}
	}

	merged := Merge(cached, fetched)
	if len(merged) == 0 {
		return nil, fmt.Errorf("%w: merged series empty for %s", models.ErrMarketDataUnavailable, commodity)
	}

	if err := s.persist(ctx, commodity, region, merged); err != nil {
		return nil, err
	}

	return s.slice(merged, period), nil
}

// Invalidate drops the snapshot entry for a pair.
func (s *Store) Invalidate(ctx context.Context, commodity, region string) {
	if s.snapshot != nil {
		_ = s.snapshot.Delete(ctx, snapshotKey(commodity, region))
	}
}

func (s *Store) loadCached(ctx context.Context, commodity, region string) models.Series {
	if s.snapshot != nil {
		raw, err := s.snapshot.Get(ctx, snapshotKey(commodity, region))
		if err == nil {
			var series models.Series
			if err := json.Unmarshal(raw, &series); err == nil && len(series) > 0 {
				s.recordCache(true)
				return series
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("snapshot cache read failed", logger.Error(err))
		}
	}
	s.recordCache(false)

	series, err := s.bars.Load(ctx, commodity, region)
	if err != nil {
		s.log.Warn("bar store read failed, treating as cold",
			logger.String("commodity", commodity),
			logger.Error(err))
		return nil
	}
	return series
}

func (s *Store) persist(ctx context.Context, commodity, region string, merged models.Series) error {
	if err := s.bars.Save(ctx, commodity, region, merged); err != nil {
		return fmt.Errorf("persist series: %w", err)
	}
	if s.snapshot != nil {
		if raw, err := json.Marshal(merged); err == nil {
			if err := s.snapshot.Set(ctx, snapshotKey(commodity, region), raw, s.snapTTL); err != nil {
				s.log.Warn("snapshot cache write failed", logger.Error(err))
			}
		}
	}
	return nil
}

// slice trims the series to the requested period window.
func (s *Store) slice(series models.Series, period string) models.Series {
	start := util.PeriodStart(period, time.Now().UTC())
	if start.IsZero() {
		return series.Clone()
	}
	i := sort.Search(len(series), func(i int) bool {
		return !series[i].Date.Before(start)
	})
	return series[i:].Clone()
}

func (s *Store) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCache("history", hit)
	}
}

func snapshotKey(commodity, region string) string {
	return fmt.Sprintf("history:%s:%s", commodity, region)
}

// Merge combines a cached series with freshly fetched bars: de-duplicate
// by day (last write wins), sort ascending, forward-fill missing cells,
// then drop rows still lacking a usable close.
func Merge(cached, fetched models.Series) models.Series {
	byDay := make(map[time.Time]models.Bar, len(cached)+len(fetched))
	for _, b := range cached {
		byDay[util.TruncateDay(b.Date)] = b
	}
	for _, b := range fetched {
		b.Date = util.TruncateDay(b.Date)
		byDay[b.Date] = b
	}

	merged := make(models.Series, 0, len(byDay))
	for day, b := range byDay {
		b.Date = day
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})

	forwardFill(merged)

	out := merged[:0]
	for _, b := range merged {
		if b.Close > 0 && !math.IsNaN(b.Close) {
			out = append(out, b)
		}
	}
	return out
}

// forwardFill carries the previous row's values into zero or NaN cells.
// Head rows with no predecessor fall back to their own close.
func forwardFill(series models.Series) {
	var prev *models.Bar
	for i := range series {
		b := &series[i]
		if invalid(b.Open) {
			b.Open = pick(prev, func(p models.Bar) float64 { return p.Open }, b.Close)
		}
		if invalid(b.High) {
			b.High = pick(prev, func(p models.Bar) float64 { return p.High }, b.Close)
		}
		if invalid(b.Low) {
			b.Low = pick(prev, func(p models.Bar) float64 { return p.Low }, b.Close)
		}
		if math.IsNaN(b.Volume) {
			b.Volume = pick(prev, func(p models.Bar) float64 { return p.Volume }, 0)
		}
		if invalid(b.Close) && prev != nil {
			b.Close = prev.Close
		}
		prev = b
	}
}

func invalid(v float64) bool {
	return v == 0 || math.IsNaN(v)
}

func pick(prev *models.Bar, get func(models.Bar) float64, fallback float64) float64 {
	if prev != nil {
		if v := get(*prev); !invalid(v) {
			return v
		}
	}
	return fallback
}
