package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"SpotCast/internal/domain/models"
	xhttp "SpotCast/pkg/http"
	"SpotCast/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func chartPayload(timestamps []int64, closes []string) string {
	ts := ""
	for i, t := range timestamps {
		if i > 0 {
			ts += ","
		}
		ts += fmt.Sprintf("%d", t)
	}
	cl := ""
	for i, c := range closes {
		if i > 0 {
			cl += ","
		}
		cl += c
	}
	return fmt.Sprintf(`{"chart":{"result":[{"timestamp":[%s],"indicators":{"quote":[{"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]}]}}],"error":null}}`,
		ts, cl, cl, cl, cl, cl)
}

func TestFetchPeriod(t *testing.T) {
	day := int64(86400)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Unix()
	payload := chartPayload(
		[]int64{base, base + day, base + 2*day},
		[]string{"2400.5", "2410.0", "2395.25"},
	)

	var gotPath, gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	feed := NewFeed(testLogger(t), xhttp.NewClient(), srv.URL)
	bars, err := feed.FetchPeriod(context.Background(), "GC=F", "6m")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != "/v8/finance/chart/GC=F" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotRange != "6mo" {
		t.Fatalf("unexpected range %q", gotRange)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if bars[1].Close != 2410.0 {
		t.Fatalf("unexpected close %v", bars[1].Close)
	}
	if !bars[0].Date.Before(bars[2].Date) {
		t.Fatalf("bars out of order")
	}
}

func TestFetchSinceFiltersOldBars(t *testing.T) {
	day := int64(86400)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Unix()
	payload := chartPayload(
		[]int64{base, base + day, base + 2*day},
		[]string{"100", "101", "102"},
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	feed := NewFeed(testLogger(t), xhttp.NewClient(), srv.URL)
	since := time.Unix(base, 0).UTC()
	bars, err := feed.FetchSince(context.Background(), "SI=F", since)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars after since, got %d", len(bars))
	}
	for _, b := range bars {
		if !b.Date.After(since) {
			t.Fatalf("bar %v not after since %v", b.Date, since)
		}
	}
}

func TestFetchDropsNullCloses(t *testing.T) {
	day := int64(86400)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Unix()
	payload := fmt.Sprintf(`{"chart":{"result":[{"timestamp":[%d,%d,%d],"indicators":{"quote":[{"open":[1,null,3],"high":[1,null,3],"low":[1,null,3],"close":[1,null,3],"volume":[10,null,30]}]}}],"error":null}}`,
		base, base+day, base+2*day)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	feed := NewFeed(testLogger(t), xhttp.NewClient(), srv.URL)
	bars, err := feed.FetchPeriod(context.Background(), "CL=F", "1y")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("null close should be dropped, got %d bars", len(bars))
	}
}

func TestFetchShapeMismatch(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Unix()
	// Two timestamps but one close value.
	payload := fmt.Sprintf(`{"chart":{"result":[{"timestamp":[%d,%d],"indicators":{"quote":[{"open":[1],"high":[1],"low":[1],"close":[1],"volume":[1]}]}}],"error":null}}`,
		base, base+86400)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	feed := NewFeed(testLogger(t), xhttp.NewClient(), srv.URL)
	_, err := feed.FetchPeriod(context.Background(), "GC=F", "1y")
	if !errors.Is(err, models.ErrMarketDataUnavailable) {
		t.Fatalf("expected ErrMarketDataUnavailable, got %v", err)
	}
}

func TestFetchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	feed := NewFeed(testLogger(t), xhttp.NewClient(), srv.URL)
	_, err := feed.FetchPeriod(context.Background(), "XX=F", "1y")
	if !errors.Is(err, models.ErrMarketDataUnavailable) {
		t.Fatalf("expected ErrMarketDataUnavailable, got %v", err)
	}
}

func TestFetchHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	feed := NewFeed(testLogger(t), xhttp.NewClient(), srv.URL)
	_, err := feed.FetchPeriod(context.Background(), "GC=F", "1y")
	if !errors.Is(err, models.ErrMarketDataUnavailable) {
		t.Fatalf("expected ErrMarketDataUnavailable, got %v", err)
	}
}
