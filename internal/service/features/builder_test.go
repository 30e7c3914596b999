package features

import (
	"errors"
	"math"
	"testing"
	"time"

	"SpotCast/internal/domain/models"
)

func syntheticSeries(n int) models.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(models.Series, n)
	for i := range out {
		c := 100 + 10*math.Sin(float64(i)/7) + 0.1*float64(i)
		out[i] = models.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000 + float64(i),
		}
	}
	return out
}

func TestBuildColumnLayout(t *testing.T) {
	frame, err := Build(syntheticSeries(60))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(frame.Columns) != len(BaseColumns) {
		t.Fatalf("expected %d columns, got %d", len(BaseColumns), len(frame.Columns))
	}
	for i, want := range BaseColumns {
		if frame.Columns[i] != want {
			t.Fatalf("column %d = %q, want %q", i, frame.Columns[i], want)
		}
	}
}

func TestBuildDropsLookbackHead(t *testing.T) {
	n := 60
	frame, err := Build(syntheticSeries(n))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// Volatility needs a full 20-wide window of defined returns, which
	// first happens at row 20.
	if got := frame.NumRows(); got != n-20 {
		t.Fatalf("expected %d rows, got %d", n-20, got)
	}
	for i, row := range frame.Data {
		for j, v := range row {
			if math.IsNaN(v) {
				t.Fatalf("NaN survived at row %d col %s", i, frame.Columns[j])
			}
		}
	}
}

func TestBuildInsufficientData(t *testing.T) {
	_, err := Build(syntheticSeries(20))
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestBuildRSIBounds(t *testing.T) {
	frame, err := Build(syntheticSeries(100))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	idx := frame.ColumnIndex("rsi")
	if idx < 0 {
		t.Fatalf("no rsi column")
	}
	for _, row := range frame.Data {
		if row[idx] < 0 || row[idx] > 100 {
			t.Fatalf("rsi out of bounds: %v", row[idx])
		}
	}
}

func TestBuildRSISaturatesOnMonotonicRally(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(models.Series, 40)
	for i := range series {
		c := 100 + float64(i)
		series[i] = models.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	frame, err := Build(series)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	idx := frame.ColumnIndex("rsi")
	last := frame.Data[frame.NumRows()-1][idx]
	if last < 99.9 {
		t.Fatalf("expected saturated rsi on pure rally, got %v", last)
	}
}

func TestBuildLagColumns(t *testing.T) {
	series := syntheticSeries(60)
	frame, err := Build(series)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	closeIdx := frame.ColumnIndex("Close")
	lag1Idx := frame.ColumnIndex("lag_1")
	for i := 1; i < frame.NumRows(); i++ {
		if frame.Data[i][lag1Idx] != frame.Data[i-1][closeIdx] {
			t.Fatalf("lag_1 mismatch at row %d", i)
		}
	}
}

func TestAddCalendar(t *testing.T) {
	frame, err := Build(syntheticSeries(60))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	before := len(frame.Columns)
	AddCalendar(frame)
	if len(frame.Columns) != before+3 {
		t.Fatalf("expected 3 calendar columns")
	}
	sinIdx := frame.ColumnIndex("month_sin")
	cosIdx := frame.ColumnIndex("month_cos")
	for _, row := range frame.Data {
		norm := row[sinIdx]*row[sinIdx] + row[cosIdx]*row[cosIdx]
		if math.Abs(norm-1) > 1e-9 {
			t.Fatalf("cyclical encoding off unit circle: %v", norm)
		}
	}
}

func TestAddOverlayForwardFills(t *testing.T) {
	frame, err := Build(syntheticSeries(60))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// Only every third date is present in the overlay.
	overlay := map[time.Time]float64{}
	for i, d := range frame.Dates {
		if i%3 == 0 {
			overlay[d] = float64(i)
		}
	}
	AddOverlay(frame, "fx_rate", overlay)

	idx := frame.ColumnIndex("fx_rate")
	if idx < 0 {
		t.Fatalf("overlay column missing")
	}
	for i, row := range frame.Data {
		if math.IsNaN(row[idx]) {
			t.Fatalf("overlay NaN at row %d", i)
		}
		want := float64((i / 3) * 3)
		if row[idx] != want {
			t.Fatalf("row %d overlay %v, want forward-filled %v", i, row[idx], want)
		}
	}
}

func TestAddOverlayNonIntersectingSkipped(t *testing.T) {
	frame, err := Build(syntheticSeries(60))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	before := len(frame.Columns)
	AddOverlay(frame, "inflation_proxy", map[time.Time]float64{
		time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC): 5,
	})
	if len(frame.Columns) != before {
		t.Fatalf("non-intersecting overlay must be skipped")
	}
}

func TestMakeSupervisedTargetShift(t *testing.T) {
	frame, err := Build(syntheticSeries(80))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	horizon := 7
	x, y, err := MakeSupervised(frame, horizon)
	if err != nil {
		t.Fatalf("supervised: %v", err)
	}
	if len(x) != frame.NumRows()-horizon || len(y) != len(x) {
		t.Fatalf("unexpected shapes: %d rows, %d targets", len(x), len(y))
	}
	closeIdx := frame.ColumnIndex("Close")
	for i := range y {
		if y[i] != frame.Data[i+horizon][closeIdx] {
			t.Fatalf("target %d not shifted close", i)
		}
	}
}

func TestMakeSupervisedTooShort(t *testing.T) {
	frame, err := Build(syntheticSeries(25))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	_, _, err = MakeSupervised(frame, frame.NumRows()+1)
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestLatestRowIsCopy(t *testing.T) {
	frame, err := Build(syntheticSeries(40))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	row := LatestRow(frame)
	row[0] = -1
	if frame.Data[frame.NumRows()-1][0] == -1 {
		t.Fatalf("LatestRow must copy")
	}
}
