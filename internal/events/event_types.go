package events

import (
	"time"

	"github.com/spec-kit/worklog-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventWorkLogCreated   EventType = "work_log_created"
	EventWorkLogUpdated   EventType = "work_log_updated"
	EventWorkLogDeleted   EventType = "work_log_deleted"
	EventWorkLogRestored  EventType = "work_log_restored"
	EventPhotoUploaded    EventType = "work_log_photo_uploaded"
	EventPhotoDeleted     EventType = "work_log_photo_deleted"
	EventAuditWriteFailed EventType = "audit_write_failed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	WorkLogID int64       `json:"work_log_id"`
	ActorID   int64       `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// WorkLogCreatedPayload payload.
type WorkLogCreatedPayload struct {
	SerialNumber string               `json:"serial_number"`
	Category     string               `json:"category"`
	Department   string               `json:"department"`
	Status       domain.WorkLogStatus `json:"status"`
}

// WorkLogUpdatedPayload payload.
type WorkLogUpdatedPayload struct {
	SerialNumber string               `json:"serial_number"`
	Changes      []domain.FieldChange `json:"changes"`
}

// WorkLogDeletedPayload payload.
type WorkLogDeletedPayload struct {
	SerialNumber string `json:"serial_number"`
}

// WorkLogRestoredPayload payload.
type WorkLogRestoredPayload struct {
	SerialNumber string `json:"serial_number"`
}

// PhotoPayload payload for photo upload/delete events.
type PhotoPayload struct {
	PhotoID   int64            `json:"photo_id"`
	PhotoType domain.PhotoType `json:"photo_type"`
	FileName  string           `json:"file_name"`
}

// AuditWriteFailedPayload reports an audit entry that could not be written.
// The underlying mutation has already committed.
type AuditWriteFailedPayload struct {
	OperationType domain.OperationType `json:"operation_type"`
	Reason        string               `json:"reason"`
}
