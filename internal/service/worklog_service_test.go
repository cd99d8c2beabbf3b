package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/worklog-service/internal/domain"
	"github.com/spec-kit/worklog-service/internal/events"
	"github.com/spec-kit/worklog-service/internal/observability"
	"github.com/spec-kit/worklog-service/internal/repository"
	apperrors "github.com/spec-kit/worklog-service/pkg/util"
)

type fakeWorkLogRepo struct {
	mu      sync.Mutex
	nextID  int64
	logs    map[int64]*domain.WorkLog
	serials map[string]struct{}
}

func newFakeWorkLogRepo() *fakeWorkLogRepo {
	return &fakeWorkLogRepo{
		logs:    map[int64]*domain.WorkLog{},
		serials: map[string]struct{}{},
	}
}

func cloneWorkLog(log *domain.WorkLog) *domain.WorkLog {
	clone := *log
	if log.Extra != nil {
		clone.Extra = make(map[string]any, len(log.Extra))
		for k, v := range log.Extra {
			clone.Extra[k] = v
		}
	}
	if log.DeletedAt != nil {
		at := *log.DeletedAt
		clone.DeletedAt = &at
	}
	if log.DeletedBy != nil {
		by := *log.DeletedBy
		clone.DeletedBy = &by
	}
	return &clone
}

func (r *fakeWorkLogRepo) Create(_ context.Context, log *domain.WorkLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.serials[log.SerialNumber]; taken {
		return &pgconn.PgError{Code: "23505", ConstraintName: "work_logs_serial_number_key"}
	}
	r.nextID++
	log.ID = r.nextID
	log.CreatedAt = time.Now()
	log.UpdatedAt = log.CreatedAt
	r.serials[log.SerialNumber] = struct{}{}
	r.logs[log.ID] = cloneWorkLog(log)
	return nil
}

func (r *fakeWorkLogRepo) UpdateLive(_ context.Context, id int64, payload domain.WorkLogPayload) (*domain.WorkLog, *domain.WorkLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.logs[id]
	if !ok || stored.IsDeleted {
		return nil, nil, pgx.ErrNoRows
	}
	before := cloneWorkLog(stored)
	stored.Apply(payload)
	stored.UpdatedAt = time.Now()
	return before, cloneWorkLog(stored), nil
}

func (r *fakeWorkLogRepo) SoftDelete(_ context.Context, id, deletedBy int64) (*domain.WorkLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.logs[id]
	if !ok || stored.IsDeleted {
		return nil, pgx.ErrNoRows
	}
	before := cloneWorkLog(stored)
	now := time.Now()
	stored.IsDeleted = true
	stored.DeletedAt = &now
	stored.DeletedBy = &deletedBy
	return before, nil
}

func (r *fakeWorkLogRepo) Restore(_ context.Context, id int64) (*domain.WorkLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.logs[id]
	if !ok || !stored.IsDeleted {
		return nil, pgx.ErrNoRows
	}
	stored.IsDeleted = false
	stored.DeletedAt = nil
	stored.DeletedBy = nil
	return cloneWorkLog(stored), nil
}

func (r *fakeWorkLogRepo) GetByID(_ context.Context, id int64, includeDeleted bool) (*domain.WorkLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.logs[id]
	if !ok || (stored.IsDeleted && !includeDeleted) {
		return nil, pgx.ErrNoRows
	}
	return cloneWorkLog(stored), nil
}

func (r *fakeWorkLogRepo) ListWithFilter(_ context.Context, filter repository.WorkLogFilter) ([]domain.WorkLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.WorkLog
	for _, stored := range r.logs {
		if stored.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		if filter.Status != nil && string(stored.Status) != *filter.Status {
			continue
		}
		if filter.Category != nil && stored.Category != *filter.Category {
			continue
		}
		result = append(result, *cloneWorkLog(stored))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (r *fakeWorkLogRepo) Count(ctx context.Context, filter repository.WorkLogFilter) (int64, error) {
	items, err := r.ListWithFilter(ctx, filter)
	return int64(len(items)), err
}

func (r *fakeWorkLogRepo) ListDeleted(_ context.Context, _, _ int) ([]repository.DeletedWorkLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []repository.DeletedWorkLog
	for _, stored := range r.logs {
		if stored.IsDeleted {
			result = append(result, repository.DeletedWorkLog{WorkLog: *cloneWorkLog(stored)})
		}
	}
	return result, nil
}

func (r *fakeWorkLogRepo) CountDeleted(ctx context.Context) (int64, error) {
	items, err := r.ListDeleted(ctx, 0, 0)
	return int64(len(items)), err
}

type fakeSettingsRepo struct {
	categories  map[string]struct{}
	departments map[string]struct{}
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{
		categories:  map[string]struct{}{"Hardware": {}, "Software": {}, "Network": {}},
		departments: map[string]struct{}{"IT": {}, "Sales": {}, "Accounting": {}},
	}
}

func (r *fakeSettingsRepo) ListByKind(_ context.Context, kind domain.OptionKind) ([]domain.SettingOption, error) {
	var result []domain.SettingOption
	set := r.categories
	if kind == domain.OptionKindDepartment {
		set = r.departments
	}
	for name := range set {
		result = append(result, domain.SettingOption{Kind: kind, Name: name, IsActive: true})
	}
	return result, nil
}

func (r *fakeSettingsRepo) Exists(_ context.Context, kind domain.OptionKind, name string) (bool, error) {
	if kind == domain.OptionKindDepartment {
		_, ok := r.departments[name]
		return ok, nil
	}
	_, ok := r.categories[name]
	return ok, nil
}

func (r *fakeSettingsRepo) Create(_ context.Context, option *domain.SettingOption) error {
	if option.Kind == domain.OptionKindDepartment {
		r.departments[option.Name] = struct{}{}
	} else {
		r.categories[option.Name] = struct{}{}
	}
	return nil
}

func (r *fakeSettingsRepo) Update(context.Context, *domain.SettingOption) error { return nil }

func (r *fakeSettingsRepo) SchemaVersion(context.Context) (int, error) { return 1, nil }

type fakeOperationLogRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries []domain.OperationLog
	fail    bool
}

func (r *fakeOperationLogRepo) Create(_ context.Context, entry *domain.OperationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("operation_logs unavailable")
	}
	r.nextID++
	entry.ID = r.nextID
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeOperationLogRepo) ListByWorkLog(_ context.Context, workLogID int64) ([]domain.OperationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.OperationLog
	for _, entry := range r.entries {
		if entry.WorkLogID == workLogID {
			result = append(result, entry)
		}
	}
	// newest first, id as tiebreak, matching the store's ordering
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (r *fakeOperationLogRepo) byWorkLog(workLogID int64) []domain.OperationLog {
	entries, _ := r.ListByWorkLog(context.Background(), workLogID)
	return entries
}

type serviceFixture struct {
	service    *WorkLogService
	workLogs   *fakeWorkLogRepo
	opLogs     *fakeOperationLogRepo
	metrics    *observability.Metrics
	dispatcher events.Dispatcher
	clock      *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newServiceFixture() *serviceFixture {
	workLogs := newFakeWorkLogRepo()
	opLogs := &fakeOperationLogRepo{}
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	clock := &fakeClock{now: time.Date(2024, 3, 15, 10, 15, 2, 0, time.UTC)}

	audit := NewAuditRecorder(opLogs, dispatcher, zap.NewNop(), metrics)
	svc := NewWorkLogService(WorkLogDependencies{
		WorkLogRepo:  workLogs,
		SettingsRepo: newFakeSettingsRepo(),
		HistoryRepo:  opLogs,
		Audit:        audit,
		Dispatcher:   dispatcher,
		Now:          clock.Now,
	})
	return &serviceFixture{
		service:    svc,
		workLogs:   workLogs,
		opLogs:     opLogs,
		metrics:    metrics,
		dispatcher: dispatcher,
		clock:      clock,
	}
}

func adminUser() *domain.User {
	return &domain.User{ID: 1, Username: "root", Role: domain.RoleAdmin}
}

func managerUser() *domain.User {
	return &domain.User{
		ID:           2,
		Username:     "morgan",
		Role:         domain.RoleManager,
		Capabilities: domain.DefaultCapabilities(domain.RoleManager),
	}
}

// regular account holding an explicit delete grant on top of the defaults
func regularUserWithDelete() *domain.User {
	return &domain.User{
		ID:       3,
		Username: "alice",
		Role:     domain.RoleUser,
		Capabilities: append(domain.DefaultCapabilities(domain.RoleUser),
			domain.CapabilityDelete),
	}
}

func validPayload() domain.WorkLogPayload {
	return domain.WorkLogPayload{
		Description: "PC crashes on boot",
		Category:    "Hardware",
		Department:  "IT",
		Reporter:    "Alice",
	}
}

var noProv = domain.Provenance{}

func TestCreateAssignsSerialAndAuditsCreate(t *testing.T) {
	f := newServiceFixture()
	actor := adminUser()

	log, err := f.service.Create(context.Background(), actor, validPayload(), noProv)
	require.NoError(t, err)
	require.Equal(t, "IT20240315-101502", log.SerialNumber)
	require.Equal(t, domain.WorkLogStatusInProgress, log.Status)

	entries := f.opLogs.byWorkLog(log.ID)
	require.Len(t, entries, 1)
	require.Equal(t, domain.OperationCreate, entries[0].Type)
	require.Nil(t, entries[0].OldData)
	require.Equal(t, log.Snapshot(), entries[0].NewData)
	require.Equal(t, actor.ID, entries[0].UserID)
}

func TestCreateValidationFailureProducesNoAudit(t *testing.T) {
	f := newServiceFixture()

	payload := validPayload()
	payload.Description = "   "
	_, err := f.service.Create(context.Background(), adminUser(), payload, noProv)
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	require.Equal(t, "VALIDATION_FAILED", domainErr.Code)

	payload = validPayload()
	payload.Category = "Mainframe"
	_, err = f.service.Create(context.Background(), adminUser(), payload, noProv)
	require.Error(t, err)
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	require.Empty(t, f.opLogs.entries)
	require.Empty(t, f.workLogs.logs)
}

func TestCreateSerialCollisionIsConflict(t *testing.T) {
	f := newServiceFixture()

	_, err := f.service.Create(context.Background(), adminUser(), validPayload(), noProv)
	require.NoError(t, err)

	// clock not advanced: same second, same serial
	_, err = f.service.Create(context.Background(), adminUser(), validPayload(), noProv)
	require.Error(t, err)
	require.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)

	f.clock.Advance(time.Second)
	_, err = f.service.Create(context.Background(), adminUser(), validPayload(), noProv)
	require.NoError(t, err)
}

func TestDoubleDeleteHasOneWinner(t *testing.T) {
	f := newServiceFixture()
	actor := adminUser()

	log, err := f.service.Create(context.Background(), actor, validPayload(), noProv)
	require.NoError(t, err)

	_, err = f.service.Delete(context.Background(), actor, log.ID, noProv)
	require.NoError(t, err)

	_, err = f.service.Delete(context.Background(), actor, log.ID, noProv)
	require.Error(t, err)
	require.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)

	var deletes int
	for _, entry := range f.opLogs.byWorkLog(log.ID) {
		if entry.Type == domain.OperationDelete {
			deletes++
		}
	}
	require.Equal(t, 1, deletes)
}

func TestRestoreNeverDeletedIsNotFound(t *testing.T) {
	f := newServiceFixture()
	actor := managerUser()

	log, err := f.service.Create(context.Background(), actor, validPayload(), noProv)
	require.NoError(t, err)

	_, err = f.service.Restore(context.Background(), actor, log.ID, noProv)
	require.Error(t, err)
	require.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)

	_, err = f.service.Restore(context.Background(), actor, 9999, noProv)
	require.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestLifecycleAuditTrailOrderingAndSnapshots(t *testing.T) {
	f := newServiceFixture()
	actor := adminUser()
	ctx := context.Background()

	log, err := f.service.Create(ctx, actor, validPayload(), noProv)
	require.NoError(t, err)

	update := validPayload()
	update.Resolution = "reseated RAM"
	update.Status = domain.WorkLogStatusResolved
	updated, err := f.service.Update(ctx, actor, log.ID, update, noProv)
	require.NoError(t, err)

	_, err = f.service.Delete(ctx, actor, log.ID, noProv)
	require.NoError(t, err)
	restored, err := f.service.Restore(ctx, actor, log.ID, noProv)
	require.NoError(t, err)
	deletedAgain, err := f.service.Delete(ctx, actor, log.ID, noProv)
	require.NoError(t, err)

	entries := f.opLogs.byWorkLog(log.ID)
	require.Len(t, entries, 5)

	// newest first
	types := make([]domain.OperationType, 0, len(entries))
	for _, entry := range entries {
		types = append(types, entry.Type)
	}
	require.Equal(t, []domain.OperationType{
		domain.OperationDelete,
		domain.OperationRestore,
		domain.OperationDelete,
		domain.OperationUpdate,
		domain.OperationCreate,
	}, types)

	// restore resurfaces exactly the content the delete captured
	require.Equal(t, entries[2].OldData, entries[1].NewData)
	// the second delete sees the post-restore state
	require.Equal(t, restored.Snapshot(), entries[0].OldData)
	require.Equal(t, updated.Snapshot(), deletedAgain.Snapshot())
}

func TestUpdateAuditCarriesDiff(t *testing.T) {
	f := newServiceFixture()
	actor := adminUser()
	ctx := context.Background()

	log, err := f.service.Create(ctx, actor, validPayload(), noProv)
	require.NoError(t, err)

	update := validPayload()
	update.Status = domain.WorkLogStatusResolved
	update.Resolution = "replaced PSU"
	_, err = f.service.Update(ctx, actor, log.ID, update, noProv)
	require.NoError(t, err)

	entries := f.opLogs.byWorkLog(log.ID)
	require.Equal(t, domain.OperationUpdate, entries[0].Type)
	require.NotNil(t, entries[0].OldData)
	require.NotNil(t, entries[0].NewData)
	require.True(t, strings.Contains(entries[0].Description, "Status"))
	require.True(t, strings.Contains(entries[0].Description, "Resolution"))

	changes := domain.DiffSnapshots(entries[0].OldData, entries[0].NewData)
	require.Len(t, changes, 2)
}

func TestRegularRoleForbiddenFromDeletedSurfaces(t *testing.T) {
	f := newServiceFixture()
	alice := regularUserWithDelete()
	ctx := context.Background()

	log, err := f.service.Create(ctx, alice, validPayload(), noProv)
	require.NoError(t, err)

	// the delete grant lets her delete
	_, err = f.service.Delete(ctx, alice, log.ID, noProv)
	require.NoError(t, err)

	// but nothing managerial opens up, even where the result would be empty
	_, err = f.service.Restore(ctx, alice, log.ID, noProv)
	require.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
	_, err = f.service.ListDeleted(ctx, alice, 50, 0)
	require.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
	_, err = f.service.History(ctx, alice, log.ID)
	require.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)

	// a manager restores what she cannot
	_, err = f.service.Restore(ctx, managerUser(), log.ID, noProv)
	require.NoError(t, err)
}

func TestListIncludeDeletedDegradesForRegularRoles(t *testing.T) {
	f := newServiceFixture()
	admin := adminUser()
	ctx := context.Background()

	live, err := f.service.Create(ctx, admin, validPayload(), noProv)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	doomed, err := f.service.Create(ctx, admin, validPayload(), noProv)
	require.NoError(t, err)
	_, err = f.service.Delete(ctx, admin, doomed.ID, noProv)
	require.NoError(t, err)

	query := WorkLogListQuery{IncludeDeleted: true, Limit: 50}

	viewer := &domain.User{ID: 9, Role: domain.RoleViewer, Capabilities: domain.DefaultCapabilities(domain.RoleViewer)}
	page, err := f.service.List(ctx, viewer, query)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, live.ID, page.Items[0].ID)

	page, err = f.service.List(ctx, admin, query)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
}

func TestGetDeletedVisibilityFollowsPolicy(t *testing.T) {
	f := newServiceFixture()
	admin := adminUser()
	ctx := context.Background()

	log, err := f.service.Create(ctx, admin, validPayload(), noProv)
	require.NoError(t, err)
	_, err = f.service.Delete(ctx, admin, log.ID, noProv)
	require.NoError(t, err)

	viewer := &domain.User{ID: 9, Role: domain.RoleViewer, Capabilities: domain.DefaultCapabilities(domain.RoleViewer)}
	_, err = f.service.Get(ctx, viewer, log.ID)
	require.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)

	fetched, err := f.service.Get(ctx, admin, log.ID)
	require.NoError(t, err)
	require.True(t, fetched.IsDeleted)
	require.NotNil(t, fetched.DeletedAt)
	require.NotNil(t, fetched.DeletedBy)
}

func TestAuditWriteFailureNeverFailsMutation(t *testing.T) {
	f := newServiceFixture()
	actor := adminUser()
	ctx := context.Background()

	log, err := f.service.Create(ctx, actor, validPayload(), noProv)
	require.NoError(t, err)

	var failedEvents []events.Event
	f.dispatcher.Subscribe(events.EventAuditWriteFailed, func(_ context.Context, event events.Event) error {
		failedEvents = append(failedEvents, event)
		return nil
	})

	f.opLogs.fail = true
	deleted, err := f.service.Delete(ctx, actor, log.ID, noProv)
	require.NoError(t, err)
	require.NotNil(t, deleted)

	// mutation committed
	stored, err := f.workLogs.GetByID(ctx, log.ID, true)
	require.NoError(t, err)
	require.True(t, stored.IsDeleted)

	// failure surfaced out of band
	require.Len(t, failedEvents, 1)
	payload, ok := failedEvents[0].Payload.(events.AuditWriteFailedPayload)
	require.True(t, ok)
	require.Equal(t, domain.OperationDelete, payload.OperationType)
	require.Equal(t, int64(1), f.metrics.AuditFailures()[string(domain.OperationDelete)])
}

func TestHistoryIncludesDiffsPerEntry(t *testing.T) {
	f := newServiceFixture()
	admin := adminUser()
	ctx := context.Background()

	log, err := f.service.Create(ctx, admin, validPayload(), noProv)
	require.NoError(t, err)
	update := validPayload()
	update.Status = domain.WorkLogStatusResolved
	_, err = f.service.Update(ctx, admin, log.ID, update, noProv)
	require.NoError(t, err)

	entries, err := f.service.History(ctx, admin, log.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, domain.OperationUpdate, entries[0].Type)
	require.Len(t, entries[0].Changes, 1)
	require.Equal(t, "status", entries[0].Changes[0].Field)
	require.Nil(t, entries[1].Changes)

	_, err = f.service.History(ctx, admin, 9999)
	require.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestViewerCannotCreate(t *testing.T) {
	f := newServiceFixture()
	viewer := &domain.User{ID: 9, Role: domain.RoleViewer, Capabilities: domain.DefaultCapabilities(domain.RoleViewer)}

	_, err := f.service.Create(context.Background(), viewer, validPayload(), noProv)
	require.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
	require.Empty(t, f.opLogs.entries)
}
