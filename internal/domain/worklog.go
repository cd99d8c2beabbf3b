package domain

import "time"

// WorkLogStatus enumerates handling states for work logs.
type WorkLogStatus string

const (
	WorkLogStatusInProgress   WorkLogStatus = "IN_PROGRESS"
	WorkLogStatusResolved     WorkLogStatus = "RESOLVED"
	WorkLogStatusUnresolvable WorkLogStatus = "UNRESOLVABLE"
	WorkLogStatusRequested    WorkLogStatus = "REQUESTED"
)

// ValidWorkLogStatus reports whether s is a known status value.
func ValidWorkLogStatus(s WorkLogStatus) bool {
	switch s {
	case WorkLogStatusInProgress, WorkLogStatusResolved, WorkLogStatusUnresolvable, WorkLogStatusRequested:
		return true
	}
	return false
}

// WorkLog is the aggregate for IT work-log entries. A row is either live
// (IsDeleted false, deletion fields nil) or soft-deleted (IsDeleted true,
// deletion fields populated); rows are never physically removed.
type WorkLog struct {
	ID           int64
	SerialNumber string
	Description  string
	Resolution   string
	Category     string
	Department   string
	Extension    string
	Reporter     string
	Resolver     string
	Status       WorkLogStatus
	Notes        string
	Extra        map[string]any
	IsDeleted    bool
	DeletedAt    *time.Time
	DeletedBy    *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WorkLogPayload is the mutable content of a work log: a typed core plus an
// open map for forward-compatible extra attributes.
type WorkLogPayload struct {
	Description string
	Resolution  string
	Category    string
	Department  string
	Extension   string
	Reporter    string
	Resolver    string
	Status      WorkLogStatus
	Notes       string
	Extra       map[string]any
}

// reserved keys are managed by the store and never accepted from payloads.
var reservedPayloadKeys = map[string]struct{}{
	"id":            {},
	"serial_number": {},
	"is_deleted":    {},
	"deleted_at":    {},
	"deleted_by":    {},
	"created_at":    {},
	"updated_at":    {},
}

// PayloadFromMap builds a payload from a raw field mapping. Known fields fill
// the typed core; unknown fields pass through untouched in Extra.
func PayloadFromMap(raw map[string]any) WorkLogPayload {
	payload := WorkLogPayload{}
	for key, value := range raw {
		if _, reserved := reservedPayloadKeys[key]; reserved {
			continue
		}
		switch key {
		case "description":
			payload.Description = stringValue(value)
		case "resolution":
			payload.Resolution = stringValue(value)
		case "category":
			payload.Category = stringValue(value)
		case "department":
			payload.Department = stringValue(value)
		case "extension":
			payload.Extension = stringValue(value)
		case "reporter":
			payload.Reporter = stringValue(value)
		case "resolver":
			payload.Resolver = stringValue(value)
		case "status":
			payload.Status = WorkLogStatus(stringValue(value))
		case "notes":
			payload.Notes = stringValue(value)
		default:
			if payload.Extra == nil {
				payload.Extra = map[string]any{}
			}
			payload.Extra[key] = value
		}
	}
	return payload
}

// Apply overwrites the mutable content of the work log with the payload.
func (w *WorkLog) Apply(payload WorkLogPayload) {
	w.Description = payload.Description
	w.Resolution = payload.Resolution
	w.Category = payload.Category
	w.Department = payload.Department
	w.Extension = payload.Extension
	w.Reporter = payload.Reporter
	w.Resolver = payload.Resolver
	w.Status = payload.Status
	w.Notes = payload.Notes
	if payload.Extra == nil {
		w.Extra = nil
		return
	}
	w.Extra = make(map[string]any, len(payload.Extra))
	for key, value := range payload.Extra {
		w.Extra[key] = value
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
