package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/worklog-service/internal/domain"
)

// WorkLogFilter captures listing parameters. Status and Category are matched
// verbatim: values outside the configured domain simply match nothing.
type WorkLogFilter struct {
	Status         *string
	Category       *string
	SearchTerm     *string
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// DeletedWorkLog pairs a soft-deleted row with the resolved deleter name.
type DeletedWorkLog struct {
	domain.WorkLog
	DeletedByName string
}

// WorkLogRepository encapsulates work-log persistence with soft-delete
// semantics. State-transition checks run inside a transaction with a row
// lock so concurrent mutations cannot both observe the same state.
type WorkLogRepository interface {
	Create(ctx context.Context, log *domain.WorkLog) error
	UpdateLive(ctx context.Context, id int64, payload domain.WorkLogPayload) (before, after *domain.WorkLog, err error)
	SoftDelete(ctx context.Context, id, deletedBy int64) (*domain.WorkLog, error)
	Restore(ctx context.Context, id int64) (*domain.WorkLog, error)
	GetByID(ctx context.Context, id int64, includeDeleted bool) (*domain.WorkLog, error)
	ListWithFilter(ctx context.Context, filter WorkLogFilter) ([]domain.WorkLog, error)
	Count(ctx context.Context, filter WorkLogFilter) (int64, error)
	ListDeleted(ctx context.Context, limit, offset int) ([]DeletedWorkLog, error)
	CountDeleted(ctx context.Context) (int64, error)
}

const workLogColumns = `id, serial_number, description, resolution, category, department,
        extension, reporter, resolver, status, notes, extra,
        is_deleted, deleted_at, deleted_by, created_at, updated_at`

type workLogRepository struct {
	pool *pgxpool.Pool
}

// NewWorkLogRepository instantiates the repository.
func NewWorkLogRepository(pool *pgxpool.Pool) WorkLogRepository {
	return &workLogRepository{pool: pool}
}

func (r *workLogRepository) Create(ctx context.Context, log *domain.WorkLog) error {
	const query = `
        INSERT INTO work_logs (serial_number, description, resolution, category, department,
            extension, reporter, resolver, status, notes, extra)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	extra := log.Extra
	if extra == nil {
		extra = map[string]any{}
	}
	return r.pool.QueryRow(ctx, query,
		log.SerialNumber,
		log.Description,
		log.Resolution,
		log.Category,
		log.Department,
		log.Extension,
		log.Reporter,
		log.Resolver,
		log.Status,
		log.Notes,
		extra,
	).Scan(&log.ID, &log.CreatedAt, &log.UpdatedAt)
}

// UpdateLive applies the payload to a live row. Deleted rows are not
// updatable; the caller sees pgx.ErrNoRows for them.
func (r *workLogRepository) UpdateLive(ctx context.Context, id int64, payload domain.WorkLogPayload) (*domain.WorkLog, *domain.WorkLog, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	before, err := scanWorkLog(tx.QueryRow(ctx,
		`SELECT `+workLogColumns+` FROM work_logs WHERE id=$1 AND is_deleted = FALSE FOR UPDATE`, id))
	if err != nil {
		return nil, nil, err
	}

	updated := *before
	updated.Apply(payload)
	extra := updated.Extra
	if extra == nil {
		extra = map[string]any{}
	}

	if err := tx.QueryRow(ctx, `
        UPDATE work_logs SET description=$1, resolution=$2, category=$3, department=$4,
            extension=$5, reporter=$6, resolver=$7, status=$8, notes=$9, extra=$10,
            updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`,
		updated.Description,
		updated.Resolution,
		updated.Category,
		updated.Department,
		updated.Extension,
		updated.Reporter,
		updated.Resolver,
		updated.Status,
		updated.Notes,
		extra,
		id,
	).Scan(&updated.UpdatedAt); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return before, &updated, nil
}

// SoftDelete marks a live row deleted and returns the pre-deletion snapshot.
// When two deletes race, the row lock guarantees the loser sees ErrNoRows.
func (r *workLogRepository) SoftDelete(ctx context.Context, id, deletedBy int64) (*domain.WorkLog, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	before, err := scanWorkLog(tx.QueryRow(ctx,
		`SELECT `+workLogColumns+` FROM work_logs WHERE id=$1 AND is_deleted = FALSE FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE work_logs SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $1 WHERE id = $2`,
		deletedBy, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return before, nil
}

// Restore clears deletion state on a deleted row and returns it live.
func (r *workLogRepository) Restore(ctx context.Context, id int64) (*domain.WorkLog, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	restored, err := scanWorkLog(tx.QueryRow(ctx,
		`SELECT `+workLogColumns+` FROM work_logs WHERE id=$1 AND is_deleted = TRUE FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE work_logs SET is_deleted = FALSE, deleted_at = NULL, deleted_by = NULL WHERE id = $1`,
		id); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	restored.IsDeleted = false
	restored.DeletedAt = nil
	restored.DeletedBy = nil
	return restored, nil
}

func (r *workLogRepository) GetByID(ctx context.Context, id int64, includeDeleted bool) (*domain.WorkLog, error) {
	query := `SELECT ` + workLogColumns + ` FROM work_logs WHERE id=$1`
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	return scanWorkLog(r.pool.QueryRow(ctx, query, id))
}

func (r *workLogRepository) ListWithFilter(ctx context.Context, filter WorkLogFilter) ([]domain.WorkLog, error) {
	clauses, args := filterClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(
		`SELECT `+workLogColumns+` FROM work_logs WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkLogs(rows)
}

// Count returns the total matching the filter, independent of pagination.
func (r *workLogRepository) Count(ctx context.Context, filter WorkLogFilter) (int64, error) {
	clauses, args := filterClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM work_logs WHERE %s`, strings.Join(clauses, " AND "))

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *workLogRepository) ListDeleted(ctx context.Context, limit, offset int) ([]DeletedWorkLog, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
        SELECT wl.id, wl.serial_number, wl.description, wl.resolution, wl.category, wl.department,
               wl.extension, wl.reporter, wl.resolver, wl.status, wl.notes, wl.extra,
               wl.is_deleted, wl.deleted_at, wl.deleted_by, wl.created_at, wl.updated_at,
               COALESCE(u.full_name, '')
        FROM work_logs wl
        LEFT JOIN users u ON wl.deleted_by = u.id
        WHERE wl.is_deleted = TRUE
        ORDER BY wl.deleted_at DESC, wl.id DESC
        LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DeletedWorkLog
	for rows.Next() {
		var entry DeletedWorkLog
		if err := rows.Scan(
			&entry.ID,
			&entry.SerialNumber,
			&entry.Description,
			&entry.Resolution,
			&entry.Category,
			&entry.Department,
			&entry.Extension,
			&entry.Reporter,
			&entry.Resolver,
			&entry.Status,
			&entry.Notes,
			&entry.Extra,
			&entry.IsDeleted,
			&entry.DeletedAt,
			&entry.DeletedBy,
			&entry.CreatedAt,
			&entry.UpdatedAt,
			&entry.DeletedByName,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *workLogRepository) CountDeleted(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM work_logs WHERE is_deleted = TRUE`).Scan(&total)
	return total, err
}

func filterClauses(filter WorkLogFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if !filter.IncludeDeleted {
		clauses = append(clauses, "is_deleted = FALSE")
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(reporter) LIKE %s OR LOWER(department) LIKE %s OR LOWER(notes) LIKE %s OR LOWER(description) LIKE %s OR LOWER(resolution) LIKE %s OR LOWER(serial_number) LIKE %s)",
			placeholder, placeholder, placeholder, placeholder, placeholder, placeholder))
	}
	return clauses, args
}

func scanWorkLog(row pgx.Row) (*domain.WorkLog, error) {
	var log domain.WorkLog
	if err := row.Scan(
		&log.ID,
		&log.SerialNumber,
		&log.Description,
		&log.Resolution,
		&log.Category,
		&log.Department,
		&log.Extension,
		&log.Reporter,
		&log.Resolver,
		&log.Status,
		&log.Notes,
		&log.Extra,
		&log.IsDeleted,
		&log.DeletedAt,
		&log.DeletedBy,
		&log.CreatedAt,
		&log.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &log, nil
}

func scanWorkLogs(rows pgx.Rows) ([]domain.WorkLog, error) {
	var result []domain.WorkLog
	for rows.Next() {
		log, err := scanWorkLog(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *log)
	}
	return result, rows.Err()
}
