package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/worklog-service/internal/domain"
)

// PhotoRepository stores photo metadata attached to work logs.
type PhotoRepository interface {
	Create(ctx context.Context, photo *domain.WorkLogPhoto) error
	GetByID(ctx context.Context, id int64) (*domain.WorkLogPhoto, error)
	ListByWorkLog(ctx context.Context, workLogID int64) ([]domain.WorkLogPhoto, error)
	CountByType(ctx context.Context, workLogID int64, photoType domain.PhotoType) (int, error)
	Delete(ctx context.Context, id int64) error
}

const photoColumns = `id, work_log_id, photo_type, file_name, original_name, storage_key,
        thumbnail_key, file_size, mime_type, sort_order, created_by, created_at`

type photoRepository struct {
	pool *pgxpool.Pool
}

// NewPhotoRepository instantiates the repository.
func NewPhotoRepository(pool *pgxpool.Pool) PhotoRepository {
	return &photoRepository{pool: pool}
}

func (r *photoRepository) Create(ctx context.Context, photo *domain.WorkLogPhoto) error {
	const query = `
        INSERT INTO work_log_photos (work_log_id, photo_type, file_name, original_name,
            storage_key, thumbnail_key, file_size, mime_type, sort_order, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		photo.WorkLogID,
		photo.Type,
		photo.FileName,
		photo.OriginalName,
		photo.StorageKey,
		photo.ThumbnailKey,
		photo.FileSize,
		photo.MimeType,
		photo.SortOrder,
		photo.CreatedBy,
	).Scan(&photo.ID, &photo.CreatedAt)
}

func (r *photoRepository) GetByID(ctx context.Context, id int64) (*domain.WorkLogPhoto, error) {
	var photo domain.WorkLogPhoto
	if err := r.pool.QueryRow(ctx,
		`SELECT `+photoColumns+` FROM work_log_photos WHERE id=$1`, id).Scan(
		&photo.ID,
		&photo.WorkLogID,
		&photo.Type,
		&photo.FileName,
		&photo.OriginalName,
		&photo.StorageKey,
		&photo.ThumbnailKey,
		&photo.FileSize,
		&photo.MimeType,
		&photo.SortOrder,
		&photo.CreatedBy,
		&photo.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *photoRepository) ListByWorkLog(ctx context.Context, workLogID int64) ([]domain.WorkLogPhoto, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+photoColumns+` FROM work_log_photos WHERE work_log_id=$1 ORDER BY photo_type, sort_order, id`,
		workLogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkLogPhoto
	for rows.Next() {
		var photo domain.WorkLogPhoto
		if err := rows.Scan(
			&photo.ID,
			&photo.WorkLogID,
			&photo.Type,
			&photo.FileName,
			&photo.OriginalName,
			&photo.StorageKey,
			&photo.ThumbnailKey,
			&photo.FileSize,
			&photo.MimeType,
			&photo.SortOrder,
			&photo.CreatedBy,
			&photo.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, photo)
	}
	return result, rows.Err()
}

func (r *photoRepository) CountByType(ctx context.Context, workLogID int64, photoType domain.PhotoType) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM work_log_photos WHERE work_log_id=$1 AND photo_type=$2`,
		workLogID, photoType).Scan(&count)
	return count, err
}

func (r *photoRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM work_log_photos WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
