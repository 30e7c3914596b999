package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"SpotCast/internal/domain/models"
	"SpotCast/internal/domain/repository"
)

// RunTableSchema creates the training-run table. The UNIQUE constraint on
// model_version is the registry's storage-level uniqueness guarantee.
const RunTableSchema = `
CREATE TABLE IF NOT EXISTS training_runs (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    commodity     TEXT NOT NULL,
    region        TEXT NOT NULL,
    model_name    TEXT NOT NULL,
    model_version TEXT NOT NULL UNIQUE,
    rmse          REAL NOT NULL,
    mape          REAL NOT NULL,
    artifact_path TEXT NOT NULL,
    trained_at    TIMESTAMP NOT NULL
)`

// RunIndexSchema speeds up the latest-per-pair read path.
const RunIndexSchema = `
CREATE INDEX IF NOT EXISTS idx_training_runs_pair
ON training_runs (commodity, region, trained_at)`

// SQLiteRunStore persists training-run metadata in sqlite.
type SQLiteRunStore struct {
	db *sql.DB
}

// NewSQLiteRunStore creates a run store over an open handle.
func NewSQLiteRunStore(db *sql.DB) repository.RunStore {
	return &SQLiteRunStore{db: db}
}

// Insert commits one run row. A model_version collision surfaces as
// models.ErrDuplicateVersion; any other storage failure as
// models.ErrTrainingPersistenceFailed.
func (s *SQLiteRunStore) Insert(ctx context.Context, run *models.TrainingRun) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO training_runs
 (commodity, region, model_name, model_version, rmse, mape, artifact_path, trained_at)
 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Commodity, run.Region, run.ModelName, run.ModelVersion,
		run.RMSE, run.MAPE, run.ArtifactPath, run.TrainedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", models.ErrDuplicateVersion, run.ModelVersion)
		}
		return fmt.Errorf("%w: %v", models.ErrTrainingPersistenceFailed, err)
	}

	if id, err := res.LastInsertId(); err == nil {
		run.ID = id
	}
	return nil
}

// Latest returns the most recent run for a pair, or nil when the pair
// has never been trained.
func (s *SQLiteRunStore) Latest(ctx context.Context, commodity, region string) (*models.TrainingRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, commodity, region, model_name, model_version, rmse, mape, artifact_path, trained_at
 FROM training_runs
 WHERE commodity = ? AND region = ?
 ORDER BY trained_at DESC, id DESC
 LIMIT 1`,
		commodity, region)

	var run models.TrainingRun
	err := row.Scan(&run.ID, &run.Commodity, &run.Region, &run.ModelName,
		&run.ModelVersion, &run.RMSE, &run.MAPE, &run.ArtifactPath, &run.TrainedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return &run, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
