package rates

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SpotCast/internal/domain/models"
	"SpotCast/internal/domain/repository"
	"SpotCast/pkg/logger"
)

// Cache serves FX rates from an in-memory snapshot with a TTL, refreshing
// from an ordered list of sources on expiry. A snapshot is retained past
// its TTL as a stale fallback tier; the call hard-fails only when every
// source fails and nothing was ever cached.
type Cache struct {
	mu       sync.Mutex
	snapshot *models.RateSnapshot

	sources []repository.RateSource
	ttl     time.Duration
	needed  []string

	log     *logger.Logger
	metrics repository.Metrics
	now     func() time.Time
}

// CacheOption configures the rate cache.
type CacheOption func(*Cache)

// WithTTL overrides the snapshot freshness window.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m repository.Metrics) CacheOption {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache creates a rate cache over the given sources, tried in order.
// The needed currency set is derived from the region catalog.
func NewCache(log *logger.Logger, sources []repository.RateSource, opts ...CacheOption) *Cache {
	needed := make([]string, 0, len(models.Regions))
	for _, name := range models.RegionNames() {
		needed = append(needed, models.Regions[name].Currency)
	}

	c := &Cache{
		sources: sources,
		ttl:     time.Hour,
		needed:  needed,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetRates returns currency rates relative to the base currency. The
// common case is an O(1) snapshot hit with no network traffic.
func (c *Cache) GetRates(ctx context.Context) (map[string]float64, error) {
	now := c.now()

	c.mu.Lock()
	if c.snapshot != nil && c.snapshot.Fresh(now, c.ttl) {
		rates := cloneRates(c.snapshot.Rates)
		c.mu.Unlock()
		c.recordCache(true)
		return rates, nil
	}
	c.mu.Unlock()
	c.recordCache(false)

	// Refresh outside the lock. Concurrent callers may fetch redundantly;
	// last successful write wins.
	for _, source := range c.sources {
		fetched, err := source.Fetch(ctx)
		if err != nil {
			c.log.Warn("rate source failed",
				logger.String("source", source.Name()),
				logger.Error(err))
			c.recordSourceFailure(source.Name())
			continue
		}
		if err := c.validate(fetched); err != nil {
			c.log.Warn("rate source incomplete",
				logger.String("source", source.Name()),
				logger.Error(err))
			c.recordSourceFailure(source.Name())
			continue
		}

		fetched[models.BaseCurrency] = 1.0
		snap := &models.RateSnapshot{
			Rates:     fetched,
			FetchedAt: c.now(),
			Source:    source.Name(),
		}

		c.mu.Lock()
		c.snapshot = snap
		c.mu.Unlock()

		c.log.Info("rates refreshed",
			logger.String("source", source.Name()),
			logger.Int("currencies", len(fetched)))
		return cloneRates(fetched), nil
	}

	// All sources failed. Serve the last snapshot even if expired.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot != nil {
		c.log.Warn("all rate sources failed, serving stale snapshot",
			logger.String("source", c.snapshot.Source),
			logger.Duration("age", now.Sub(c.snapshot.FetchedAt)))
		return cloneRates(c.snapshot.Rates), nil
	}
	return nil, models.ErrRatesUnavailable
}

// Snapshot returns a copy of the current snapshot, or nil if none was
// ever cached.
func (c *Cache) Snapshot() *models.RateSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		return nil
	}
	cp := *c.snapshot
	cp.Rates = cloneRates(c.snapshot.Rates)
	return &cp
}

func (c *Cache) validate(rates map[string]float64) error {
	for _, currency := range c.needed {
		if currency == models.BaseCurrency {
			continue
		}
		if v, ok := rates[currency]; !ok || v <= 0 {
			return fmt.Errorf("missing rate for %s", currency)
		}
	}
	return nil
}

func (c *Cache) recordCache(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCache("fx_rates", hit)
	}
}

func (c *Cache) recordSourceFailure(name string) {
	if c.metrics != nil {
		c.metrics.RecordSourceFailure(name)
	}
}

func cloneRates(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
