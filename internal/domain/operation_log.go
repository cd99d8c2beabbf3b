package domain

import "time"

// OperationType captures what kind of mutation an audit entry records.
type OperationType string

const (
	OperationCreate      OperationType = "create"
	OperationUpdate      OperationType = "update"
	OperationDelete      OperationType = "delete"
	OperationRestore     OperationType = "restore"
	OperationPhotoUpload OperationType = "photo_upload"
	OperationPhotoDelete OperationType = "photo_delete"
)

// Provenance carries request metadata recorded with each audit entry.
type Provenance struct {
	IPAddress string
	UserAgent string
}

// OperationLog is an immutable audit trail entry. Entries are appended once
// per committed mutation and never updated or deleted.
type OperationLog struct {
	ID          int64
	WorkLogID   int64
	UserID      int64
	Type        OperationType
	OldData     Snapshot
	NewData     Snapshot
	Description string
	IPAddress   string
	UserAgent   string
	CreatedAt   time.Time

	// resolved on read from the users table
	ActorUsername string
	ActorFullName string
}
