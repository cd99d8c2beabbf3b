package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/worklog-service/internal/auth"
	"github.com/spec-kit/worklog-service/internal/domain"
	"github.com/spec-kit/worklog-service/internal/events"
	"github.com/spec-kit/worklog-service/internal/repository"
	apperrors "github.com/spec-kit/worklog-service/pkg/util"
)

// WorkLogService sequences validation, mutation, and audit append for every
// work-log lifecycle operation.
type WorkLogService struct {
	workLogs   repository.WorkLogRepository
	settings   repository.SettingsRepository
	history    repository.OperationLogRepository
	audit      *AuditRecorder
	dispatcher events.Dispatcher
	now        func() time.Time
}

// WorkLogDependencies bundles collaborators for the service.
type WorkLogDependencies struct {
	WorkLogRepo  repository.WorkLogRepository
	SettingsRepo repository.SettingsRepository
	HistoryRepo  repository.OperationLogRepository
	Audit        *AuditRecorder
	Dispatcher   events.Dispatcher
	Now          func() time.Time
}

// WorkLogListQuery describes listing parameters.
type WorkLogListQuery struct {
	Status         *string
	Category       *string
	SearchTerm     *string
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// WorkLogPage is one page of results plus the filter-wide total.
type WorkLogPage struct {
	Items []domain.WorkLog
	Total int64
}

// DeletedPage is one page of soft-deleted records.
type DeletedPage struct {
	Items []repository.DeletedWorkLog
	Total int64
}

// HistoryEntry is an audit entry enriched with its field-level diff.
type HistoryEntry struct {
	domain.OperationLog
	Changes []domain.FieldChange
}

// NewWorkLogService constructs the service.
func NewWorkLogService(deps WorkLogDependencies) *WorkLogService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &WorkLogService{
		workLogs:   deps.WorkLogRepo,
		settings:   deps.SettingsRepo,
		history:    deps.HistoryRepo,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// Create validates the payload, inserts a live work log with a generated
// serial number, and appends a create audit entry.
func (s *WorkLogService) Create(ctx context.Context, actor *domain.User, payload domain.WorkLogPayload, prov domain.Provenance) (*domain.WorkLog, error) {
	if !auth.HasCapability(actor, domain.CapabilityCreate) {
		return nil, apperrors.NewForbidden("create capability required")
	}
	if payload.Status == "" {
		payload.Status = domain.WorkLogStatusInProgress
	}
	if err := s.validatePayload(ctx, payload); err != nil {
		return nil, err
	}

	log := &domain.WorkLog{SerialNumber: generateSerialNumber(s.now())}
	log.Apply(payload)

	if err := s.workLogs.Create(ctx, log); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("serial number already exists", map[string]any{
				"serial_number": log.SerialNumber,
			})
		}
		return nil, apperrors.MapError(err)
	}

	s.audit.Record(ctx, &domain.OperationLog{
		WorkLogID:   log.ID,
		UserID:      actor.ID,
		Type:        domain.OperationCreate,
		NewData:     log.Snapshot(),
		Description: "created work log " + log.SerialNumber,
		IPAddress:   prov.IPAddress,
		UserAgent:   prov.UserAgent,
	})
	s.publish(ctx, events.EventWorkLogCreated, log.ID, actor.ID, events.WorkLogCreatedPayload{
		SerialNumber: log.SerialNumber,
		Category:     log.Category,
		Department:   log.Department,
		Status:       log.Status,
	})
	return log, nil
}

// Update applies a new payload to a live work log and appends an update
// audit entry carrying both snapshots and the field diff.
func (s *WorkLogService) Update(ctx context.Context, actor *domain.User, id int64, payload domain.WorkLogPayload, prov domain.Provenance) (*domain.WorkLog, error) {
	if !auth.HasCapability(actor, domain.CapabilityUpdate) {
		return nil, apperrors.NewForbidden("update capability required")
	}
	if payload.Status == "" {
		payload.Status = domain.WorkLogStatusInProgress
	}
	if err := s.validatePayload(ctx, payload); err != nil {
		return nil, err
	}

	before, after, err := s.workLogs.UpdateLive(ctx, id, payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("work log", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	beforeSnap := before.Snapshot()
	afterSnap := after.Snapshot()
	changes := domain.DiffSnapshots(beforeSnap, afterSnap)

	s.audit.Record(ctx, &domain.OperationLog{
		WorkLogID:   after.ID,
		UserID:      actor.ID,
		Type:        domain.OperationUpdate,
		OldData:     beforeSnap,
		NewData:     afterSnap,
		Description: updateDescription(after.SerialNumber, changes),
		IPAddress:   prov.IPAddress,
		UserAgent:   prov.UserAgent,
	})
	s.publish(ctx, events.EventWorkLogUpdated, after.ID, actor.ID, events.WorkLogUpdatedPayload{
		SerialNumber: after.SerialNumber,
		Changes:      changes,
	})
	return after, nil
}

// Delete soft-deletes a live work log. Deleting an already-deleted record
// fails with NotFound; the check and the write are atomic in the store.
func (s *WorkLogService) Delete(ctx context.Context, actor *domain.User, id int64, prov domain.Provenance) (*domain.WorkLog, error) {
	if !auth.HasCapability(actor, domain.CapabilityDelete) {
		return nil, apperrors.NewForbidden("delete capability required")
	}

	before, err := s.workLogs.SoftDelete(ctx, id, actor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("work log", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	s.audit.Record(ctx, &domain.OperationLog{
		WorkLogID:   before.ID,
		UserID:      actor.ID,
		Type:        domain.OperationDelete,
		OldData:     before.Snapshot(),
		Description: "soft-deleted work log " + before.SerialNumber,
		IPAddress:   prov.IPAddress,
		UserAgent:   prov.UserAgent,
	})
	s.publish(ctx, events.EventWorkLogDeleted, before.ID, actor.ID, events.WorkLogDeletedPayload{
		SerialNumber: before.SerialNumber,
	})
	return before, nil
}

// Restore brings a soft-deleted work log back to live. Only admin and
// manager roles may restore; restoring a live record fails with NotFound.
func (s *WorkLogService) Restore(ctx context.Context, actor *domain.User, id int64, prov domain.Provenance) (*domain.WorkLog, error) {
	if !auth.CanRestore(actor) {
		return nil, apperrors.NewForbidden("admin or manager role required to restore")
	}

	restored, err := s.workLogs.Restore(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("deleted work log", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	s.audit.Record(ctx, &domain.OperationLog{
		WorkLogID:   restored.ID,
		UserID:      actor.ID,
		Type:        domain.OperationRestore,
		NewData:     restored.Snapshot(),
		Description: "restored work log " + restored.SerialNumber,
		IPAddress:   prov.IPAddress,
		UserAgent:   prov.UserAgent,
	})
	s.publish(ctx, events.EventWorkLogRestored, restored.ID, actor.ID, events.WorkLogRestoredPayload{
		SerialNumber: restored.SerialNumber,
	})
	return restored, nil
}

// Get fetches one work log. Deleted records are only visible to roles the
// visibility policy allows; everyone else sees NotFound.
func (s *WorkLogService) Get(ctx context.Context, actor *domain.User, id int64) (*domain.WorkLog, error) {
	if !auth.HasCapability(actor, domain.CapabilityRead) {
		return nil, apperrors.NewForbidden("read capability required")
	}
	log, err := s.workLogs.GetByID(ctx, id, auth.CanViewDeleted(actor))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("work log", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return log, nil
}

// List returns a page of work logs plus the filter-wide total. The
// include-deleted flag is honored only when the policy allows it; for
// everyone else the listing silently covers live records only.
func (s *WorkLogService) List(ctx context.Context, actor *domain.User, query WorkLogListQuery) (*WorkLogPage, error) {
	if !auth.HasCapability(actor, domain.CapabilityRead) {
		return nil, apperrors.NewForbidden("read capability required")
	}

	filter := repository.WorkLogFilter{
		Status:         query.Status,
		Category:       query.Category,
		SearchTerm:     query.SearchTerm,
		IncludeDeleted: query.IncludeDeleted && auth.CanViewDeleted(actor),
		Limit:          query.Limit,
		Offset:         query.Offset,
	}

	items, err := s.workLogs.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	total, err := s.workLogs.Count(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &WorkLogPage{Items: items, Total: total}, nil
}

// ListDeleted returns soft-deleted records. Callers outside the policy get
// Forbidden, never an empty page.
func (s *WorkLogService) ListDeleted(ctx context.Context, actor *domain.User, limit, offset int) (*DeletedPage, error) {
	if !auth.CanViewDeleted(actor) {
		return nil, apperrors.NewForbidden("admin or manager role required to view deleted records")
	}

	items, err := s.workLogs.ListDeleted(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	total, err := s.workLogs.CountDeleted(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &DeletedPage{Items: items, Total: total}, nil
}

// History returns the audit trail of one work log, newest first, with the
// field diff computed per update entry.
func (s *WorkLogService) History(ctx context.Context, actor *domain.User, workLogID int64) ([]HistoryEntry, error) {
	if !auth.CanViewHistory(actor) {
		return nil, apperrors.NewForbidden("admin or manager role required to view history")
	}
	if _, err := s.workLogs.GetByID(ctx, workLogID, true); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("work log", map[string]any{"id": workLogID})
		}
		return nil, apperrors.MapError(err)
	}

	entries, err := s.history.ListByWorkLog(ctx, workLogID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, HistoryEntry{
			OperationLog: entry,
			Changes:      domain.DiffSnapshots(entry.OldData, entry.NewData),
		})
	}
	return result, nil
}

// Export returns every work log matching the filter for CSV export, gated
// on the export_data capability. Pagination does not apply.
func (s *WorkLogService) Export(ctx context.Context, actor *domain.User, query WorkLogListQuery) ([]domain.WorkLog, error) {
	if !auth.HasCapability(actor, domain.CapabilityExportData) {
		return nil, apperrors.NewForbidden("export_data capability required")
	}

	filter := repository.WorkLogFilter{
		Status:         query.Status,
		Category:       query.Category,
		SearchTerm:     query.SearchTerm,
		IncludeDeleted: query.IncludeDeleted && auth.CanViewDeleted(actor),
		Limit:          exportBatchLimit,
		Offset:         0,
	}
	items, err := s.workLogs.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

const exportBatchLimit = 10000

// requiredFields are validated present and non-empty on create and update.
var requiredFields = []struct {
	name  string
	value func(domain.WorkLogPayload) string
}{
	{"description", func(p domain.WorkLogPayload) string { return p.Description }},
	{"category", func(p domain.WorkLogPayload) string { return p.Category }},
	{"department", func(p domain.WorkLogPayload) string { return p.Department }},
	{"reporter", func(p domain.WorkLogPayload) string { return p.Reporter }},
}

func (s *WorkLogService) validatePayload(ctx context.Context, payload domain.WorkLogPayload) error {
	var missing []string
	for _, field := range requiredFields {
		if strings.TrimSpace(field.value(payload)) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("required fields missing", map[string]any{"missing": missing})
	}
	if !domain.ValidWorkLogStatus(payload.Status) {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": string(payload.Status)})
	}

	if s.settings != nil {
		ok, err := s.settings.Exists(ctx, domain.OptionKindCategory, payload.Category)
		if err != nil {
			return apperrors.MapError(err)
		}
		if !ok {
			return apperrors.NewValidationError("unknown category", map[string]any{"category": payload.Category})
		}
		ok, err = s.settings.Exists(ctx, domain.OptionKindDepartment, payload.Department)
		if err != nil {
			return apperrors.MapError(err)
		}
		if !ok {
			return apperrors.NewValidationError("unknown department", map[string]any{"department": payload.Department})
		}
	}
	return nil
}

func (s *WorkLogService) publish(ctx context.Context, eventType events.EventType, workLogID, actorID int64, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		WorkLogID: workLogID,
		ActorID:   actorID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}

// generateSerialNumber derives a human-readable serial from the wall clock
// at second resolution. Two creations inside the same second collide; the
// store's unique index rejects the loser.
func generateSerialNumber(now time.Time) string {
	return "IT" + now.Format("20060102-150405")
}

func updateDescription(serial string, changes []domain.FieldChange) string {
	if len(changes) == 0 {
		return "updated work log " + serial
	}
	parts := make([]string, 0, len(changes))
	for _, change := range changes {
		parts = append(parts, fmt.Sprintf("%s: %q -> %q", change.Label, change.OldValue, change.NewValue))
	}
	return "updated work log " + serial + " (" + strings.Join(parts, "; ") + ")"
}
