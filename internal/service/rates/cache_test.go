package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"SpotCast/internal/domain/models"
	"SpotCast/internal/domain/repository"
	"SpotCast/pkg/logger"
)

type fakeSource struct {
	name  string
	rates map[string]float64
	err   error
	calls int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context) (map[string]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]float64, len(f.rates))
	for k, v := range f.rates {
		out[k] = v
	}
	return out, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func fullRates() map[string]float64 {
	return map[string]float64{"USD": 1, "INR": 84, "EUR": 0.92}
}

func TestGetRatesPrimarySuccess(t *testing.T) {
	primary := &fakeSource{name: "primary", rates: fullRates()}
	fallback := &fakeSource{name: "fallback", rates: fullRates()}
	c := NewCache(testLogger(t), []repository.RateSource{primary, fallback})

	got, err := c.GetRates(context.Background())
	if err != nil {
		t.Fatalf("get rates: %v", err)
	}
	if got["INR"] != 84 {
		t.Fatalf("unexpected INR rate %v", got["INR"])
	}
	if got["USD"] != 1.0 {
		t.Fatalf("base must be 1.0, got %v", got["USD"])
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback should not be called when primary succeeds")
	}
}

func TestGetRatesFreshHitSkipsNetwork(t *testing.T) {
	primary := &fakeSource{name: "primary", rates: fullRates()}
	c := NewCache(testLogger(t), []repository.RateSource{primary})

	if _, err := c.GetRates(context.Background()); err != nil {
		t.Fatalf("warm up: %v", err)
	}
	if _, err := c.GetRates(context.Background()); err != nil {
		t.Fatalf("cached read: %v", err)
	}
	if primary.calls != 1 {
		t.Fatalf("expected a single fetch, got %d", primary.calls)
	}
}

func TestGetRatesFallbackTier(t *testing.T) {
	primary := &fakeSource{name: "primary", err: errors.New("boom")}
	fallback := &fakeSource{name: "fallback", rates: fullRates()}
	c := NewCache(testLogger(t), []repository.RateSource{primary, fallback})

	got, err := c.GetRates(context.Background())
	if err != nil {
		t.Fatalf("get rates: %v", err)
	}
	if got["EUR"] != 0.92 {
		t.Fatalf("unexpected EUR rate %v", got["EUR"])
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Fatalf("expected both sources tried, got %d/%d", primary.calls, fallback.calls)
	}

	snap := c.Snapshot()
	if snap == nil || snap.Source != "fallback" {
		t.Fatalf("snapshot should credit fallback, got %+v", snap)
	}
}

func TestGetRatesIncompleteSourceSkipped(t *testing.T) {
	// Missing INR makes the source unusable for the region catalog.
	incomplete := &fakeSource{name: "incomplete", rates: map[string]float64{"USD": 1, "EUR": 0.92}}
	fallback := &fakeSource{name: "fallback", rates: fullRates()}
	c := NewCache(testLogger(t), []repository.RateSource{incomplete, fallback})

	got, err := c.GetRates(context.Background())
	if err != nil {
		t.Fatalf("get rates: %v", err)
	}
	if got["INR"] != 84 {
		t.Fatalf("expected fallback rates, got %v", got)
	}
}

func TestGetRatesStaleTier(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	primary := &fakeSource{name: "primary", rates: fullRates()}
	c := NewCache(testLogger(t), []repository.RateSource{primary},
		WithTTL(time.Hour), WithClock(clock))

	if _, err := c.GetRates(context.Background()); err != nil {
		t.Fatalf("warm up: %v", err)
	}

	// Expire the snapshot and kill the source.
	now = now.Add(2 * time.Hour)
	primary.err = errors.New("offline")

	got, err := c.GetRates(context.Background())
	if err != nil {
		t.Fatalf("stale tier should serve old snapshot: %v", err)
	}
	if got["INR"] != 84 {
		t.Fatalf("unexpected stale rates %v", got)
	}
	if primary.calls != 2 {
		t.Fatalf("expired snapshot should retry the source, got %d calls", primary.calls)
	}
}

func TestGetRatesHardFailure(t *testing.T) {
	primary := &fakeSource{name: "primary", err: errors.New("down")}
	fallback := &fakeSource{name: "fallback", err: errors.New("down too")}
	c := NewCache(testLogger(t), []repository.RateSource{primary, fallback})

	_, err := c.GetRates(context.Background())
	if !errors.Is(err, models.ErrRatesUnavailable) {
		t.Fatalf("expected ErrRatesUnavailable, got %v", err)
	}
}

func TestGetRatesReturnsCopy(t *testing.T) {
	primary := &fakeSource{name: "primary", rates: fullRates()}
	c := NewCache(testLogger(t), []repository.RateSource{primary})

	first, err := c.GetRates(context.Background())
	if err != nil {
		t.Fatalf("get rates: %v", err)
	}
	first["INR"] = -1

	second, err := c.GetRates(context.Background())
	if err != nil {
		t.Fatalf("get rates: %v", err)
	}
	if second["INR"] != 84 {
		t.Fatalf("caller mutation leaked into cache: %v", second["INR"])
	}
}
