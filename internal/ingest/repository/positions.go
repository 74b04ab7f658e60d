package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"auramesh/internal/ingest/types"
)

//go:embed sql/insert-position.sql
var insertPositionSQL string

//go:embed sql/list-positions.sql
var listPositionsSQL string

//go:embed sql/delete-position.sql
var deletePositionSQL string

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("repository: not found")

type PositionRepository interface {
	InsertPosition(ctx context.Context, p types.Position) (types.Position, error)
	ListPositions(ctx context.Context) ([]types.Position, error)
	DeletePosition(ctx context.Context, id int64) error
}

type positionRepository struct {
	db *sql.DB
}

func NewPositionRepository(db *sql.DB) PositionRepository {
	return &positionRepository{db: db}
}

func (r *positionRepository) InsertPosition(ctx context.Context, p types.Position) (types.Position, error) {
	p.CreatedAt = p.CreatedAt.UTC()
	res, err := r.db.ExecContext(ctx, insertPositionSQL, p.Name, p.Lat, p.Lng, p.SensorType, p.CreatedAt.Format(tsLayout))
	if err != nil {
		return types.Position{}, fmt.Errorf("insert position: %w", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return types.Position{}, fmt.Errorf("insert position: %w", err)
	}
	return p, nil
}

func (r *positionRepository) ListPositions(ctx context.Context) ([]types.Position, error) {
	rows, err := r.db.QueryContext(ctx, listPositionsSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close position rows", "error", err)
		}
	}()

	out := []types.Position{}
	for rows.Next() {
		var (
			p  types.Position
			ts string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Lat, &p.Lng, &p.SensorType, &ts); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = time.Parse(tsLayout, ts); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", ts, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *positionRepository) DeletePosition(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deletePositionSQL, id)
	if err != nil {
		return fmt.Errorf("delete position %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete position %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("position %d: %w", id, ErrNotFound)
	}
	return nil
}
