package repository

import (
	"path/filepath"
	"testing"

	"SpotCast/internal/domain/models"
	"SpotCast/internal/service/bench"
)

func fittedModel(t *testing.T) bench.Regressor {
	t.Helper()
	m := bench.NewSeasonalNaive(3)
	x := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{10, 20, 30, 40}
	if err := m.Fit(x, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	return m
}

func TestArtifactSaveLoadRoundTrip(t *testing.T) {
	store := NewFSArtifactStore()
	path := filepath.Join(t.TempDir(), "gold", "india", "seasonal_naive_india_20250601120000.gob")

	meta := models.ArtifactMeta{
		RMSE:      1.5,
		MAPE:      3.2,
		Horizon:   7,
		Commodity: "gold",
		Region:    "india",
		Version:   "seasonal_naive_india_20250601120000",
		ModelName: "seasonal_naive",
	}
	model := fittedModel(t)

	if err := store.Save(path, model, meta); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !store.Exists(path) {
		t.Fatalf("artifact must exist after save")
	}

	loaded, gotMeta, err := store.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if gotMeta != meta {
		t.Fatalf("metadata round trip mismatch: %+v", gotMeta)
	}
	if loaded.Name() != "seasonal_naive" {
		t.Fatalf("model identity lost: %s", loaded.Name())
	}

	want, err := model.Predict([][]float64{{0}})
	if err != nil {
		t.Fatalf("predict original: %v", err)
	}
	got, err := loaded.Predict([][]float64{{0}})
	if err != nil {
		t.Fatalf("predict loaded: %v", err)
	}
	if want[0] != got[0] {
		t.Fatalf("predictions drifted: %v vs %v", want[0], got[0])
	}
}

func TestArtifactExistsMissing(t *testing.T) {
	store := NewFSArtifactStore()
	if store.Exists(filepath.Join(t.TempDir(), "missing.gob")) {
		t.Fatalf("missing artifact must not exist")
	}
}

func TestArtifactLoadMissing(t *testing.T) {
	store := NewFSArtifactStore()
	if _, _, err := store.Load(filepath.Join(t.TempDir(), "missing.gob")); err == nil {
		t.Fatalf("expected error loading a missing artifact")
	}
}
