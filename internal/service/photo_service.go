package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/worklog-service/internal/auth"
	"github.com/spec-kit/worklog-service/internal/domain"
	"github.com/spec-kit/worklog-service/internal/events"
	"github.com/spec-kit/worklog-service/internal/repository"
	apperrors "github.com/spec-kit/worklog-service/pkg/util"
)

const maxPhotosPerType = 10

// PhotoService manages before/after photos attached to live work logs.
// Attach and removal are recorded in the audit trail of the owning record.
type PhotoService struct {
	photos     repository.PhotoRepository
	workLogs   repository.WorkLogRepository
	audit      *AuditRecorder
	dispatcher events.Dispatcher
}

// PhotoDependencies bundles collaborators for the service.
type PhotoDependencies struct {
	PhotoRepo   repository.PhotoRepository
	WorkLogRepo repository.WorkLogRepository
	Audit       *AuditRecorder
	Dispatcher  events.Dispatcher
}

// PhotoInput carries uploaded photo metadata.
type PhotoInput struct {
	Type         domain.PhotoType
	FileName     string
	OriginalName string
	StorageKey   string
	ThumbnailKey string
	FileSize     int64
	MimeType     string
	SortOrder    int
}

// NewPhotoService constructs the service.
func NewPhotoService(deps PhotoDependencies) *PhotoService {
	return &PhotoService{
		photos:     deps.PhotoRepo,
		workLogs:   deps.WorkLogRepo,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
	}
}

// Attach stores photo metadata under a live work log and appends a
// photo_upload audit entry.
func (s *PhotoService) Attach(ctx context.Context, actor *domain.User, workLogID int64, input PhotoInput, prov domain.Provenance) (*domain.WorkLogPhoto, error) {
	if !auth.HasCapability(actor, domain.CapabilityUpdate) {
		return nil, apperrors.NewForbidden("update capability required")
	}
	if !domain.ValidPhotoType(input.Type) {
		return nil, apperrors.NewValidationError("unknown photo type", map[string]any{
			"photo_type": string(input.Type),
		})
	}

	log, err := s.workLogs.GetByID(ctx, workLogID, false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("work log", map[string]any{"id": workLogID})
		}
		return nil, apperrors.MapError(err)
	}

	count, err := s.photos.CountByType(ctx, workLogID, input.Type)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if count >= maxPhotosPerType {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("at most %d %s photos per work log", maxPhotosPerType, input.Type), nil)
	}

	createdBy := actor.ID
	photo := &domain.WorkLogPhoto{
		WorkLogID:    workLogID,
		Type:         input.Type,
		FileName:     input.FileName,
		OriginalName: input.OriginalName,
		StorageKey:   input.StorageKey,
		ThumbnailKey: input.ThumbnailKey,
		FileSize:     input.FileSize,
		MimeType:     input.MimeType,
		SortOrder:    input.SortOrder,
		CreatedBy:    &createdBy,
	}
	if err := s.photos.Create(ctx, photo); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.audit.Record(ctx, &domain.OperationLog{
		WorkLogID:   workLogID,
		UserID:      actor.ID,
		Type:        domain.OperationPhotoUpload,
		NewData:     photoSnapshot(photo),
		Description: fmt.Sprintf("uploaded %s photo %s to %s", photo.Type, photo.OriginalName, log.SerialNumber),
		IPAddress:   prov.IPAddress,
		UserAgent:   prov.UserAgent,
	})
	s.publish(ctx, events.EventPhotoUploaded, workLogID, actor.ID, events.PhotoPayload{
		PhotoID:   photo.ID,
		PhotoType: photo.Type,
		FileName:  photo.FileName,
	})
	return photo, nil
}

// Remove deletes photo metadata and appends a photo_delete audit entry.
func (s *PhotoService) Remove(ctx context.Context, actor *domain.User, photoID int64, prov domain.Provenance) error {
	if !auth.HasCapability(actor, domain.CapabilityDelete) {
		return apperrors.NewForbidden("delete capability required")
	}

	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("photo", map[string]any{"id": photoID})
		}
		return apperrors.MapError(err)
	}
	if err := s.photos.Delete(ctx, photoID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("photo", map[string]any{"id": photoID})
		}
		return apperrors.MapError(err)
	}

	s.audit.Record(ctx, &domain.OperationLog{
		WorkLogID:   photo.WorkLogID,
		UserID:      actor.ID,
		Type:        domain.OperationPhotoDelete,
		OldData:     photoSnapshot(photo),
		Description: fmt.Sprintf("deleted %s photo %s", photo.Type, photo.OriginalName),
		IPAddress:   prov.IPAddress,
		UserAgent:   prov.UserAgent,
	})
	s.publish(ctx, events.EventPhotoDeleted, photo.WorkLogID, actor.ID, events.PhotoPayload{
		PhotoID:   photo.ID,
		PhotoType: photo.Type,
		FileName:  photo.FileName,
	})
	return nil
}

// List returns all photos of one work log. Deleted records keep their photos
// visible to callers the visibility policy allows.
func (s *PhotoService) List(ctx context.Context, actor *domain.User, workLogID int64) ([]domain.WorkLogPhoto, error) {
	if !auth.HasCapability(actor, domain.CapabilityRead) {
		return nil, apperrors.NewForbidden("read capability required")
	}
	if _, err := s.workLogs.GetByID(ctx, workLogID, auth.CanViewDeleted(actor)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("work log", map[string]any{"id": workLogID})
		}
		return nil, apperrors.MapError(err)
	}
	photos, err := s.photos.ListByWorkLog(ctx, workLogID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return photos, nil
}

func (s *PhotoService) publish(ctx context.Context, eventType events.EventType, workLogID, actorID int64, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		WorkLogID: workLogID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func photoSnapshot(photo *domain.WorkLogPhoto) domain.Snapshot {
	return domain.Snapshot{
		"photo_id":      photo.ID,
		"photo_type":    string(photo.Type),
		"file_name":     photo.FileName,
		"original_name": photo.OriginalName,
		"file_size":     photo.FileSize,
		"mime_type":     photo.MimeType,
	}
}
