package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"auramesh/internal/ingest/types"
)

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/get-latest-readings.sql
var getLatestReadingsSQL string

//go:embed sql/get-alerts.sql
var getAlertsSQL string

// tsLayout is fixed width so ORDER BY ts sorts chronologically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

type ReadingRepository interface {
	InsertReading(ctx context.Context, r types.Reading) (int64, error)
	GetLatestReadings(ctx context.Context, sensor string, limit int) ([]types.Reading, error)
	GetAlerts(ctx context.Context, limit int) ([]types.Reading, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ReadingRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) InsertReading(ctx context.Context, rec types.Reading) (int64, error) {
	ts := rec.Time.UTC().Format(tsLayout)
	res, err := r.db.ExecContext(ctx, insertReadingSQL, rec.Sensor, rec.Value, string(rec.Severity), rec.Title, rec.Message, ts)
	if err != nil {
		return 0, fmt.Errorf("insert reading: %w", err)
	}
	return res.LastInsertId()
}

func (r *repositoryImpl) GetLatestReadings(ctx context.Context, sensor string, limit int) ([]types.Reading, error) {
	rows, err := r.db.QueryContext(ctx, getLatestReadingsSQL, sensor, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close latest readings rows", "error", err)
		}
	}()
	return scanReadings(rows)
}

func (r *repositoryImpl) GetAlerts(ctx context.Context, limit int) ([]types.Reading, error) {
	rows, err := r.db.QueryContext(ctx, getAlertsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close alert rows", "error", err)
		}
	}()
	return scanReadings(rows)
}

func scanReadings(rows *sql.Rows) ([]types.Reading, error) {
	out := []types.Reading{}
	for rows.Next() {
		var (
			rec      types.Reading
			severity string
			ts       string
		)
		if err := rows.Scan(&rec.ID, &rec.Sensor, &rec.Value, &severity, &rec.Title, &rec.Message, &ts); err != nil {
			return nil, err
		}
		t, err := time.Parse(tsLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		rec.Severity = types.Severity(severity)
		rec.Time = t
		out = append(out, rec)
	}
	return out, rows.Err()
}
