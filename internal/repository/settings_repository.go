package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/worklog-service/internal/domain"
)

// SettingsRepository accesses the versioned configuration tables.
type SettingsRepository interface {
	ListByKind(ctx context.Context, kind domain.OptionKind) ([]domain.SettingOption, error)
	Exists(ctx context.Context, kind domain.OptionKind, name string) (bool, error)
	Create(ctx context.Context, option *domain.SettingOption) error
	Update(ctx context.Context, option *domain.SettingOption) error
	SchemaVersion(ctx context.Context) (int, error)
}

type settingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository instantiates the repository.
func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

func (r *settingsRepository) ListByKind(ctx context.Context, kind domain.OptionKind) ([]domain.SettingOption, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, kind, name, floor, position, is_active, created_at, updated_at
        FROM setting_options
        WHERE kind=$1 AND is_active = TRUE
        ORDER BY position, name`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SettingOption
	for rows.Next() {
		var option domain.SettingOption
		if err := rows.Scan(
			&option.ID,
			&option.Kind,
			&option.Name,
			&option.Floor,
			&option.Position,
			&option.IsActive,
			&option.CreatedAt,
			&option.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, option)
	}
	return result, rows.Err()
}

func (r *settingsRepository) Exists(ctx context.Context, kind domain.OptionKind, name string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM setting_options WHERE kind=$1 AND name=$2 AND is_active = TRUE)`,
		kind, name).Scan(&exists)
	return exists, err
}

func (r *settingsRepository) Create(ctx context.Context, option *domain.SettingOption) error {
	const query = `
        INSERT INTO setting_options (kind, name, floor, position, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		option.Kind,
		option.Name,
		option.Floor,
		option.Position,
		option.IsActive,
	).Scan(&option.ID, &option.CreatedAt, &option.UpdatedAt)
}

func (r *settingsRepository) Update(ctx context.Context, option *domain.SettingOption) error {
	cmd, err := r.pool.Exec(ctx, `
        UPDATE setting_options SET name=$1, floor=$2, position=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5`,
		option.Name,
		option.Floor,
		option.Position,
		option.IsActive,
		option.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *settingsRepository) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := r.pool.QueryRow(ctx, `SELECT version FROM setting_schema WHERE id = 1`).Scan(&version)
	return version, err
}
