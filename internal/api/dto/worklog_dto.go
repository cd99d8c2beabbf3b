package dto

import (
	"time"

	"github.com/spec-kit/worklog-service/internal/domain"
	"github.com/spec-kit/worklog-service/internal/repository"
	"github.com/spec-kit/worklog-service/internal/service"
)

// WorkLogResponse is the wire form of a work log.
type WorkLogResponse struct {
	ID           int64                `json:"id"`
	SerialNumber string               `json:"serial_number"`
	Description  string               `json:"description"`
	Resolution   string               `json:"resolution,omitempty"`
	Category     string               `json:"category"`
	Department   string               `json:"department"`
	Extension    string               `json:"extension,omitempty"`
	Reporter     string               `json:"reporter"`
	Resolver     string               `json:"resolver,omitempty"`
	Status       domain.WorkLogStatus `json:"status"`
	Notes        string               `json:"notes,omitempty"`
	Extra        map[string]any       `json:"extra,omitempty"`
	IsDeleted    bool                 `json:"is_deleted"`
	DeletedAt    *time.Time           `json:"deleted_at,omitempty"`
	DeletedBy    *int64               `json:"deleted_by,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// DeletedWorkLogResponse adds the resolved deleter name.
type DeletedWorkLogResponse struct {
	WorkLogResponse
	DeletedByName string `json:"deleted_by_name,omitempty"`
}

// OperationLogResponse is one audit trail entry with its field diff.
type OperationLogResponse struct {
	ID            int64                `json:"id"`
	WorkLogID     int64                `json:"work_log_id"`
	UserID        int64                `json:"user_id"`
	ActorUsername string               `json:"actor_username,omitempty"`
	ActorFullName string               `json:"actor_full_name,omitempty"`
	OperationType domain.OperationType `json:"operation_type"`
	OldData       domain.Snapshot      `json:"old_data,omitempty"`
	NewData       domain.Snapshot      `json:"new_data,omitempty"`
	Changes       []domain.FieldChange `json:"changes,omitempty"`
	Description   string               `json:"description,omitempty"`
	IPAddress     string               `json:"ip_address,omitempty"`
	UserAgent     string               `json:"user_agent,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// PhotoResponse is the wire form of photo metadata.
type PhotoResponse struct {
	ID           int64            `json:"id"`
	WorkLogID    int64            `json:"work_log_id"`
	PhotoType    domain.PhotoType `json:"photo_type"`
	FileName     string           `json:"file_name"`
	OriginalName string           `json:"original_name"`
	StorageKey   string           `json:"storage_key"`
	ThumbnailKey string           `json:"thumbnail_key,omitempty"`
	FileSize     int64            `json:"file_size"`
	MimeType     string           `json:"mime_type"`
	SortOrder    int              `json:"sort_order"`
	CreatedAt    time.Time        `json:"created_at"`
}

// AttachPhotoRequest payload.
type AttachPhotoRequest struct {
	PhotoType    domain.PhotoType `json:"photo_type"`
	FileName     string           `json:"file_name"`
	OriginalName string           `json:"original_name"`
	StorageKey   string           `json:"storage_key"`
	ThumbnailKey string           `json:"thumbnail_key"`
	FileSize     int64            `json:"file_size"`
	MimeType     string           `json:"mime_type"`
	SortOrder    int              `json:"sort_order"`
}

// FromWorkLog maps the domain aggregate to its response form.
func FromWorkLog(log *domain.WorkLog) WorkLogResponse {
	return WorkLogResponse{
		ID:           log.ID,
		SerialNumber: log.SerialNumber,
		Description:  log.Description,
		Resolution:   log.Resolution,
		Category:     log.Category,
		Department:   log.Department,
		Extension:    log.Extension,
		Reporter:     log.Reporter,
		Resolver:     log.Resolver,
		Status:       log.Status,
		Notes:        log.Notes,
		Extra:        log.Extra,
		IsDeleted:    log.IsDeleted,
		DeletedAt:    log.DeletedAt,
		DeletedBy:    log.DeletedBy,
		CreatedAt:    log.CreatedAt,
		UpdatedAt:    log.UpdatedAt,
	}
}

// FromDeletedWorkLog maps a deleted row plus deleter name.
func FromDeletedWorkLog(item repository.DeletedWorkLog) DeletedWorkLogResponse {
	return DeletedWorkLogResponse{
		WorkLogResponse: FromWorkLog(&item.WorkLog),
		DeletedByName:   item.DeletedByName,
	}
}

// FromHistoryEntry maps one audit entry.
func FromHistoryEntry(entry service.HistoryEntry) OperationLogResponse {
	return OperationLogResponse{
		ID:            entry.ID,
		WorkLogID:     entry.WorkLogID,
		UserID:        entry.UserID,
		ActorUsername: entry.ActorUsername,
		ActorFullName: entry.ActorFullName,
		OperationType: entry.Type,
		OldData:       entry.OldData,
		NewData:       entry.NewData,
		Changes:       entry.Changes,
		Description:   entry.Description,
		IPAddress:     entry.IPAddress,
		UserAgent:     entry.UserAgent,
		CreatedAt:     entry.CreatedAt,
	}
}

// FromPhoto maps photo metadata.
func FromPhoto(photo *domain.WorkLogPhoto) PhotoResponse {
	return PhotoResponse{
		ID:           photo.ID,
		WorkLogID:    photo.WorkLogID,
		PhotoType:    photo.Type,
		FileName:     photo.FileName,
		OriginalName: photo.OriginalName,
		StorageKey:   photo.StorageKey,
		ThumbnailKey: photo.ThumbnailKey,
		FileSize:     photo.FileSize,
		MimeType:     photo.MimeType,
		SortOrder:    photo.SortOrder,
		CreatedAt:    photo.CreatedAt,
	}
}
