package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/worklog-service/internal/domain"
)

// LoginLogRepository records authentication attempts.
type LoginLogRepository interface {
	Create(ctx context.Context, entry *domain.LoginLog) error
	List(ctx context.Context, limit, offset int) ([]domain.LoginLog, error)
	Count(ctx context.Context) (int64, error)
}

type loginLogRepository struct {
	pool *pgxpool.Pool
}

// NewLoginLogRepository builds the repository.
func NewLoginLogRepository(pool *pgxpool.Pool) LoginLogRepository {
	return &loginLogRepository{pool: pool}
}

func (r *loginLogRepository) Create(ctx context.Context, entry *domain.LoginLog) error {
	const query = `
        INSERT INTO login_logs (user_id, ip_address, user_agent, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.UserID,
		nullIfEmpty(entry.IPAddress),
		nullIfEmpty(entry.UserAgent),
		entry.Status,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *loginLogRepository) List(ctx context.Context, limit, offset int) ([]domain.LoginLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
        SELECT ll.id, ll.user_id, COALESCE(ll.ip_address, ''), COALESCE(ll.user_agent, ''),
               ll.status, ll.created_at, COALESCE(u.username, ''), COALESCE(u.full_name, '')
        FROM login_logs ll
        LEFT JOIN users u ON ll.user_id = u.id
        ORDER BY ll.created_at DESC, ll.id DESC
        LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.LoginLog
	for rows.Next() {
		var entry domain.LoginLog
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.Status,
			&entry.CreatedAt,
			&entry.Username,
			&entry.FullName,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *loginLogRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM login_logs`).Scan(&total)
	return total, err
}
