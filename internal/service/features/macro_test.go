package features

import (
	"math"
	"testing"
)

func TestAddMacroColumns(t *testing.T) {
	frame, err := Build(syntheticSeries(120))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	before := len(frame.Columns)
	AddMacro(frame, 84)

	want := []string{"fx_rate", "fx_volatility", "inflation_proxy", "interest_rate_proxy"}
	if len(frame.Columns) != before+len(want) {
		t.Fatalf("expected %d macro columns, got %d", len(want), len(frame.Columns)-before)
	}
	for _, name := range want {
		if frame.ColumnIndex(name) < 0 {
			t.Fatalf("missing macro column %q", name)
		}
	}
	for i, row := range frame.Data {
		if len(row) != len(frame.Columns) {
			t.Fatalf("ragged row %d: %d cells, %d columns", i, len(row), len(frame.Columns))
		}
		for j, v := range row {
			if math.IsNaN(v) {
				t.Fatalf("NaN at row %d col %s", i, frame.Columns[j])
			}
		}
	}
}

func TestAddMacroFXRateConstant(t *testing.T) {
	frame, err := Build(syntheticSeries(80))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	AddMacro(frame, 0.92)

	fxIdx := frame.ColumnIndex("fx_rate")
	volIdx := frame.ColumnIndex("fx_volatility")
	for i, row := range frame.Data {
		if row[fxIdx] != 0.92 {
			t.Fatalf("fx_rate row %d = %v, want 0.92", i, row[fxIdx])
		}
		// A flat rate series has zero rolling volatility everywhere.
		if row[volIdx] != 0 {
			t.Fatalf("fx_volatility row %d = %v, want 0", i, row[volIdx])
		}
	}
}

func TestAddMacroProxiesFromReturns(t *testing.T) {
	frame, err := Build(syntheticSeries(120))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	AddMacro(frame, 1)

	returns := frame.Column("returns")
	inflIdx := frame.ColumnIndex("inflation_proxy")
	rateIdx := frame.ColumnIndex("interest_rate_proxy")

	// Before the minimum observation count the proxies are zero-filled.
	for i := 0; i < inflMinPeriods-1; i++ {
		if frame.Data[i][inflIdx] != 0 {
			t.Fatalf("inflation proxy row %d = %v before min periods", i, frame.Data[i][inflIdx])
		}
	}
	for i := 0; i < rateMinPeriods-1; i++ {
		if frame.Data[i][rateIdx] != 0 {
			t.Fatalf("rate proxy row %d = %v before min periods", i, frame.Data[i][rateIdx])
		}
	}

	// Once the window fills, the proxy is the trailing mean of returns.
	i := inflWindow + 10
	lo := i - inflWindow + 1
	var sum float64
	for _, v := range returns[lo : i+1] {
		sum += v
	}
	want := sum / float64(inflWindow)
	if math.Abs(frame.Data[i][inflIdx]-want) > 1e-12 {
		t.Fatalf("inflation proxy row %d = %v, want %v", i, frame.Data[i][inflIdx], want)
	}

	// The interest-rate proxy tracks return dispersion and must be
	// positive once defined on a non-constant series.
	last := frame.Data[frame.NumRows()-1][rateIdx]
	if last <= 0 {
		t.Fatalf("rate proxy should be positive on a varying series, got %v", last)
	}
}
