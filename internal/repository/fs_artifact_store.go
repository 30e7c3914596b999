package repository

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"SpotCast/internal/domain/models"
	"SpotCast/internal/domain/repository"
)

// FSArtifactStore persists model artifacts on the filesystem: a gob blob
// holding the model and a JSON sidecar of the same base name holding the
// run metadata.
type FSArtifactStore struct{}

// NewFSArtifactStore creates the filesystem artifact store.
func NewFSArtifactStore() repository.ArtifactStore {
	return &FSArtifactStore{}
}

// Save writes model and sidecar. The artifact is written to a temp file
// and renamed so a crash never leaves a half-written blob at the final
// path.
func (s *FSArtifactStore) Save(path string, model models.Predictor, meta models.ArtifactMeta) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*")
	if err != nil {
		return fmt.Errorf("artifact temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(&model); err != nil {
		tmp.Close()
		return fmt.Errorf("artifact encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("artifact close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("artifact rename: %w", err)
	}

	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("sidecar encode: %w", err)
	}
	if err := os.WriteFile(sidecarPath(path), raw, 0o644); err != nil {
		return fmt.Errorf("sidecar write: %w", err)
	}
	return nil
}

// Load reads back a (model, metadata) pair.
func (s *FSArtifactStore) Load(path string) (models.Predictor, models.ArtifactMeta, error) {
	var meta models.ArtifactMeta

	f, err := os.Open(path)
	if err != nil {
		return nil, meta, fmt.Errorf("artifact open: %w", err)
	}
	defer f.Close()

	var model models.Predictor
	if err := gob.NewDecoder(f).Decode(&model); err != nil {
		return nil, meta, fmt.Errorf("artifact decode: %w", err)
	}

	raw, err := os.ReadFile(sidecarPath(path))
	if err != nil {
		return nil, meta, fmt.Errorf("sidecar read: %w", err)
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, meta, fmt.Errorf("sidecar decode: %w", err)
	}
	return model, meta, nil
}

// Exists reports whether the artifact blob is present on storage.
func (s *FSArtifactStore) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

func sidecarPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
}
