package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"SpotCast/internal/domain/models"
	"SpotCast/internal/domain/repository"
)

// BarTableSchema creates the bar table. ReplacingMergeTree collapses
// re-inserted days to the newest row, matching the last-write-wins merge
// contract of the history store.
const BarTableSchema = `
CREATE TABLE IF NOT EXISTS spot_bars (
    commodity LowCardinality(String),
    region    LowCardinality(String),
    day       Date,
    open      Float64,
    high      Float64,
    low       Float64,
    close     Float64,
    volume    Float64,
    inserted  DateTime DEFAULT now()
) ENGINE = ReplacingMergeTree(inserted)
ORDER BY (commodity, region, day)`

// ClickHouseBarStore persists merged historical series in ClickHouse.
type ClickHouseBarStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseBarStore creates a bar store over an open pool.
func NewClickHouseBarStore(db *sql.DB, table string) repository.BarStore {
	if table == "" {
		table = "spot_bars"
	}
	return &ClickHouseBarStore{db: db, table: table}
}

// Load reads the full persisted series for a pair, oldest first. The
// FINAL modifier folds not-yet-merged duplicate days.
func (s *ClickHouseBarStore) Load(ctx context.Context, commodity, region string) (models.Series, error) {
	q := fmt.Sprintf(`SELECT day, open, high, low, close, volume FROM %s FINAL
WHERE commodity = ? AND region = ? ORDER BY day ASC`, s.table)
	rows, err := s.db.QueryContext(ctx, q, commodity, region)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	defer rows.Close()

	var series models.Series
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Date = b.Date.UTC()
		series = append(series, b)
	}
	return series, rows.Err()
}

// Save writes the merged series in chunked multi-row inserts.
func (s *ClickHouseBarStore) Save(ctx context.Context, commodity, region string, bars models.Series) error {
	if len(bars) == 0 {
		return nil
	}

	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, b := range bars[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, commodity, region, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
		}
		q := fmt.Sprintf("INSERT INTO %s (commodity, region, day, open, high, low, close, volume) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("save bars: %w", err)
		}
	}
	return nil
}
