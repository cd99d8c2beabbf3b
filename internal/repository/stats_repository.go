package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsSummary aggregates work-log counts for the dashboard.
type StatsSummary struct {
	Total        int64            `json:"total"`
	Deleted      int64            `json:"deleted"`
	ByStatus     map[string]int64 `json:"by_status"`
	ByCategory   map[string]int64 `json:"by_category"`
	ByDepartment map[string]int64 `json:"by_department"`
}

// StatsRepository computes aggregate counters over live work logs.
type StatsRepository interface {
	Summary(ctx context.Context) (*StatsSummary, error)
}

type statsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository instantiates the repository.
func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) Summary(ctx context.Context) (*StatsSummary, error) {
	summary := &StatsSummary{
		ByStatus:     make(map[string]int64),
		ByCategory:   make(map[string]int64),
		ByDepartment: make(map[string]int64),
	}

	if err := r.pool.QueryRow(ctx, `
        SELECT COUNT(*) FILTER (WHERE is_deleted = FALSE),
               COUNT(*) FILTER (WHERE is_deleted = TRUE)
        FROM work_logs`).Scan(&summary.Total, &summary.Deleted); err != nil {
		return nil, err
	}

	if err := r.groupCount(ctx, "status", summary.ByStatus); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, "category", summary.ByCategory); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, "department", summary.ByDepartment); err != nil {
		return nil, err
	}
	return summary, nil
}

func (r *statsRepository) groupCount(ctx context.Context, column string, dest map[string]int64) error {
	// column is one of three fixed identifiers, never caller input.
	rows, err := r.pool.Query(ctx,
		`SELECT `+column+`, COUNT(*) FROM work_logs WHERE is_deleted = FALSE GROUP BY `+column)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dest[key] = count
	}
	return rows.Err()
}
