package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/worklog-service/internal/domain"
)

// OperationLogRepository stores the append-only audit trail. Entries are
// never updated or deleted.
type OperationLogRepository interface {
	Create(ctx context.Context, entry *domain.OperationLog) error
	ListByWorkLog(ctx context.Context, workLogID int64) ([]domain.OperationLog, error)
}

type operationLogRepository struct {
	pool *pgxpool.Pool
}

// NewOperationLogRepository builds the repository.
func NewOperationLogRepository(pool *pgxpool.Pool) OperationLogRepository {
	return &operationLogRepository{pool: pool}
}

func (r *operationLogRepository) Create(ctx context.Context, entry *domain.OperationLog) error {
	const query = `
        INSERT INTO operation_logs (work_log_id, user_id, operation_type, old_data, new_data, description, ip_address, user_agent)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.WorkLogID,
		entry.UserID,
		entry.Type,
		entry.OldData,
		entry.NewData,
		entry.Description,
		nullIfEmpty(entry.IPAddress),
		nullIfEmpty(entry.UserAgent),
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *operationLogRepository) ListByWorkLog(ctx context.Context, workLogID int64) ([]domain.OperationLog, error) {
	const query = `
        SELECT ol.id, ol.work_log_id, ol.user_id, ol.operation_type, ol.old_data, ol.new_data,
               ol.description, COALESCE(ol.ip_address, ''), COALESCE(ol.user_agent, ''), ol.created_at,
               COALESCE(u.username, ''), COALESCE(u.full_name, '')
        FROM operation_logs ol
        LEFT JOIN users u ON ol.user_id = u.id
        WHERE ol.work_log_id = $1
        ORDER BY ol.created_at DESC, ol.id DESC`
	rows, err := r.pool.Query(ctx, query, workLogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.OperationLog
	for rows.Next() {
		var entry domain.OperationLog
		if err := rows.Scan(
			&entry.ID,
			&entry.WorkLogID,
			&entry.UserID,
			&entry.Type,
			&entry.OldData,
			&entry.NewData,
			&entry.Description,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.CreatedAt,
			&entry.ActorUsername,
			&entry.ActorFullName,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
