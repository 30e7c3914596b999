package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"SpotCast/internal/domain/models"
	"SpotCast/pkg/logger"
)

type fakeFeed struct {
	periodBars models.Series
	sinceBars  models.Series
	periodErr  error
	sinceErr   error

	periodCalls int
	sinceCalls  int
	lastSince   time.Time
}

func (f *fakeFeed) FetchPeriod(ctx context.Context, symbol, period string) (models.Series, error) {
	f.periodCalls++
	if f.periodErr != nil {
		return nil, f.periodErr
	}
	return f.periodBars.Clone(), nil
}

func (f *fakeFeed) FetchSince(ctx context.Context, symbol string, since time.Time) (models.Series, error) {
	f.sinceCalls++
	f.lastSince = since
	if f.sinceErr != nil {
		return nil, f.sinceErr
	}
	return f.sinceBars.Clone(), nil
}

type fakeBarStore struct {
	data    map[string]models.Series
	saveErr error
	saves   int
}

func newFakeBarStore() *fakeBarStore {
	return &fakeBarStore{data: make(map[string]models.Series)}
}

func (f *fakeBarStore) Load(ctx context.Context, commodity, region string) (models.Series, error) {
	return f.data[commodity+"/"+region].Clone(), nil
}

func (f *fakeBarStore) Save(ctx context.Context, commodity, region string, bars models.Series) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.data[commodity+"/"+region] = bars.Clone()
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func day(offset int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -offset).Truncate(24 * time.Hour)
}

func bar(d time.Time, close float64) models.Bar {
	return models.Bar{Date: d, Open: close, High: close, Low: close, Close: close, Volume: 100}
}

func recentSeries(n int) models.Series {
	out := make(models.Series, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, bar(day(i), 100+float64(n-i)))
	}
	return out
}

func TestGetHistoricalColdPath(t *testing.T) {
	feed := &fakeFeed{periodBars: recentSeries(10)}
	bars := newFakeBarStore()
	s := NewStore(testLogger(t), feed, bars)

	got, err := s.GetHistorical(context.Background(), "gold", "us", "1y")
	if err != nil {
		t.Fatalf("cold fetch: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 bars, got %d", len(got))
	}
	if feed.periodCalls != 1 || feed.sinceCalls != 0 {
		t.Fatalf("cold path should use the period fetch, got %d/%d", feed.periodCalls, feed.sinceCalls)
	}
	if bars.saves != 1 {
		t.Fatalf("merged series must be persisted before return")
	}
}

func TestGetHistoricalColdFailureFatal(t *testing.T) {
	feed := &fakeFeed{periodErr: fmt.Errorf("%w: offline", models.ErrMarketDataUnavailable)}
	s := NewStore(testLogger(t), feed, newFakeBarStore())

	_, err := s.GetHistorical(context.Background(), "gold", "us", "1y")
	if !errors.Is(err, models.ErrMarketDataUnavailable) {
		t.Fatalf("expected ErrMarketDataUnavailable, got %v", err)
	}
}

func TestGetHistoricalWarmDelta(t *testing.T) {
	existing := recentSeries(10)[:8]
	feed := &fakeFeed{sinceBars: models.Series{bar(day(1), 200), bar(day(0), 201)}}
	bars := newFakeBarStore()
	bars.data["gold/us"] = existing
	s := NewStore(testLogger(t), feed, bars)

	got, err := s.GetHistorical(context.Background(), "gold", "us", "1y")
	if err != nil {
		t.Fatalf("warm fetch: %v", err)
	}
	if feed.periodCalls != 0 || feed.sinceCalls != 1 {
		t.Fatalf("warm path should use the delta fetch, got %d/%d", feed.periodCalls, feed.sinceCalls)
	}
	if !feed.lastSince.Equal(existing.LastDate()) {
		t.Fatalf("delta anchor %v, want %v", feed.lastSince, existing.LastDate())
	}
	if got[len(got)-1].Close != 201 {
		t.Fatalf("newest bar missing, got close %v", got[len(got)-1].Close)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 merged bars, got %d", len(got))
	}
}

func TestGetHistoricalWarmFailureDegrades(t *testing.T) {
	existing := recentSeries(8)
	feed := &fakeFeed{sinceErr: errors.New("upstream down")}
	bars := newFakeBarStore()
	bars.data["gold/us"] = existing
	s := NewStore(testLogger(t), feed, bars)

	got, err := s.GetHistorical(context.Background(), "gold", "us", "1y")
	if err != nil {
		t.Fatalf("warm failure must not fail the caller: %v", err)
	}
	if len(got) != 8 {
		t.Fatalf("expected cached series, got %d bars", len(got))
	}
}

func TestGetHistoricalUnknownCommodity(t *testing.T) {
	s := NewStore(testLogger(t), &fakeFeed{}, newFakeBarStore())
	_, err := s.GetHistorical(context.Background(), "palladium", "us", "1y")
	if !errors.Is(err, models.ErrUnsupportedCommodity) {
		t.Fatalf("expected ErrUnsupportedCommodity, got %v", err)
	}
}

func TestGetHistoricalUnknownRegion(t *testing.T) {
	s := NewStore(testLogger(t), &fakeFeed{}, newFakeBarStore())
	_, err := s.GetHistorical(context.Background(), "gold", "mars", "1y")
	if !errors.Is(err, models.ErrUnsupportedRegion) {
		t.Fatalf("expected ErrUnsupportedRegion, got %v", err)
	}
}

func TestMergeDeduplicatesLastWins(t *testing.T) {
	d := day(3)
	cached := models.Series{bar(d, 100)}
	fetched := models.Series{bar(d, 105)}

	merged := Merge(cached, fetched)
	if len(merged) != 1 {
		t.Fatalf("duplicate date must collapse, got %d rows", len(merged))
	}
	if merged[0].Close != 105 {
		t.Fatalf("last write must win, got %v", merged[0].Close)
	}
}

func TestMergeSortsAndStaysUnique(t *testing.T) {
	cached := models.Series{bar(day(1), 101), bar(day(5), 95)}
	fetched := models.Series{bar(day(3), 99), bar(day(1), 102), bar(day(0), 103)}

	merged := Merge(cached, fetched)
	seen := map[time.Time]bool{}
	for i, b := range merged {
		if i > 0 && !merged[i-1].Date.Before(b.Date) {
			t.Fatalf("not strictly ascending at %d", i)
		}
		if seen[b.Date] {
			t.Fatalf("duplicate date %v survived", b.Date)
		}
		seen[b.Date] = true
	}
	if len(merged) != 4 {
		t.Fatalf("expected 4 unique days, got %d", len(merged))
	}
}

func TestMergeForwardFillsGaps(t *testing.T) {
	full := bar(day(2), 100)
	hole := models.Bar{Date: day(1), Close: 101} // open/high/low/volume missing

	merged := Merge(models.Series{full}, models.Series{hole})
	if len(merged) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(merged))
	}
	got := merged[1]
	if got.Open != 100 || got.High != 100 || got.Low != 100 {
		t.Fatalf("gap not forward-filled: %+v", got)
	}
}

func TestMergeDropsUnusableRows(t *testing.T) {
	good := bar(day(1), 100)
	bad := models.Bar{Date: day(0)} // no close at the head of nothing to fill from

	merged := Merge(nil, models.Series{bad, good})
	for _, b := range merged {
		if b.Close <= 0 {
			t.Fatalf("row without close survived: %+v", b)
		}
	}
}
