package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/worklog-service/internal/domain"
	"github.com/spec-kit/worklog-service/internal/events"
	"github.com/spec-kit/worklog-service/internal/observability"
	apperrors "github.com/spec-kit/worklog-service/pkg/util"
)

type fakePhotoRepo struct {
	mu     sync.Mutex
	nextID int64
	photos map[int64]*domain.WorkLogPhoto
}

func newFakePhotoRepo() *fakePhotoRepo {
	return &fakePhotoRepo{photos: map[int64]*domain.WorkLogPhoto{}}
}

func (r *fakePhotoRepo) Create(_ context.Context, photo *domain.WorkLogPhoto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	photo.ID = r.nextID
	photo.CreatedAt = time.Now()
	clone := *photo
	r.photos[photo.ID] = &clone
	return nil
}

func (r *fakePhotoRepo) GetByID(_ context.Context, id int64) (*domain.WorkLogPhoto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	photo, ok := r.photos[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *photo
	return &clone, nil
}

func (r *fakePhotoRepo) ListByWorkLog(_ context.Context, workLogID int64) ([]domain.WorkLogPhoto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.WorkLogPhoto
	for _, photo := range r.photos {
		if photo.WorkLogID == workLogID {
			result = append(result, *photo)
		}
	}
	return result, nil
}

func (r *fakePhotoRepo) CountByType(_ context.Context, workLogID int64, photoType domain.PhotoType) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, photo := range r.photos {
		if photo.WorkLogID == workLogID && photo.Type == photoType {
			count++
		}
	}
	return count, nil
}

func (r *fakePhotoRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.photos[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.photos, id)
	return nil
}

type photoFixture struct {
	photos   *PhotoService
	workLogs *WorkLogService
	opLogs   *fakeOperationLogRepo
}

func newPhotoFixture() *photoFixture {
	workLogRepo := newFakeWorkLogRepo()
	opLogs := &fakeOperationLogRepo{}
	dispatcher := events.NewInMemoryDispatcher()
	audit := NewAuditRecorder(opLogs, dispatcher, zap.NewNop(), observability.NewMetrics())

	workLogs := NewWorkLogService(WorkLogDependencies{
		WorkLogRepo:  workLogRepo,
		SettingsRepo: newFakeSettingsRepo(),
		HistoryRepo:  opLogs,
		Audit:        audit,
		Dispatcher:   dispatcher,
	})
	photos := NewPhotoService(PhotoDependencies{
		PhotoRepo:   newFakePhotoRepo(),
		WorkLogRepo: workLogRepo,
		Audit:       audit,
		Dispatcher:  dispatcher,
	})
	return &photoFixture{photos: photos, workLogs: workLogs, opLogs: opLogs}
}

func photoInput(name string) PhotoInput {
	return PhotoInput{
		Type:       domain.PhotoTypeBefore,
		FileName:   name,
		StorageKey: "photos/" + name,
		FileSize:   1024,
		MimeType:   "image/jpeg",
	}
}

func TestAttachPhotoAuditsUpload(t *testing.T) {
	f := newPhotoFixture()
	actor := adminUser()
	ctx := context.Background()

	log, err := f.workLogs.Create(ctx, actor, validPayload(), noProv)
	require.NoError(t, err)

	photo, err := f.photos.Attach(ctx, actor, log.ID, photoInput("before.jpg"), noProv)
	require.NoError(t, err)
	require.NotZero(t, photo.ID)

	entries := f.opLogs.byWorkLog(log.ID)
	require.Equal(t, domain.OperationPhotoUpload, entries[0].Type)
	require.Equal(t, "before.jpg", entries[0].NewData["file_name"])
	require.Nil(t, entries[0].OldData)
}

func TestAttachPhotoRejectsDeletedWorkLog(t *testing.T) {
	f := newPhotoFixture()
	actor := adminUser()
	ctx := context.Background()

	log, err := f.workLogs.Create(ctx, actor, validPayload(), noProv)
	require.NoError(t, err)
	_, err = f.workLogs.Delete(ctx, actor, log.ID, noProv)
	require.NoError(t, err)

	_, err = f.photos.Attach(ctx, actor, log.ID, photoInput("late.jpg"), noProv)
	require.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestAttachPhotoEnforcesPerTypeLimit(t *testing.T) {
	f := newPhotoFixture()
	actor := adminUser()
	ctx := context.Background()

	log, err := f.workLogs.Create(ctx, actor, validPayload(), noProv)
	require.NoError(t, err)

	for i := 0; i < maxPhotosPerType; i++ {
		_, err := f.photos.Attach(ctx, actor, log.ID, photoInput(fmt.Sprintf("b%d.jpg", i)), noProv)
		require.NoError(t, err)
	}

	_, err = f.photos.Attach(ctx, actor, log.ID, photoInput("overflow.jpg"), noProv)
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	// the other type still has room
	after := photoInput("after.jpg")
	after.Type = domain.PhotoTypeAfter
	_, err = f.photos.Attach(ctx, actor, log.ID, after, noProv)
	require.NoError(t, err)
}

func TestRemovePhotoAuditsDelete(t *testing.T) {
	f := newPhotoFixture()
	actor := adminUser()
	ctx := context.Background()

	log, err := f.workLogs.Create(ctx, actor, validPayload(), noProv)
	require.NoError(t, err)
	photo, err := f.photos.Attach(ctx, actor, log.ID, photoInput("gone.jpg"), noProv)
	require.NoError(t, err)

	require.NoError(t, f.photos.Remove(ctx, actor, photo.ID, noProv))

	entries := f.opLogs.byWorkLog(log.ID)
	require.Equal(t, domain.OperationPhotoDelete, entries[0].Type)
	require.Equal(t, "gone.jpg", entries[0].OldData["file_name"])

	err = f.photos.Remove(ctx, actor, photo.ID, noProv)
	require.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestAttachPhotoRequiresUpdateCapability(t *testing.T) {
	f := newPhotoFixture()
	ctx := context.Background()

	log, err := f.workLogs.Create(ctx, adminUser(), validPayload(), noProv)
	require.NoError(t, err)

	viewer := &domain.User{ID: 9, Role: domain.RoleViewer, Capabilities: domain.DefaultCapabilities(domain.RoleViewer)}
	_, err = f.photos.Attach(ctx, viewer, log.ID, photoInput("x.jpg"), noProv)
	require.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}
