package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/worklog-service/internal/domain"
	"github.com/spec-kit/worklog-service/internal/events"
	"github.com/spec-kit/worklog-service/internal/observability"
	"github.com/spec-kit/worklog-service/internal/repository"
)

// AuditRecorder appends operation-log entries after a mutation has committed.
// Appends are best-effort: a failed write never unwinds the mutation. The
// failure is logged, counted, and published for out-of-band handling instead.
type AuditRecorder struct {
	logs       repository.OperationLogRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditRecorder builds the recorder.
func NewAuditRecorder(logs repository.OperationLogRepository, dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditRecorder {
	return &AuditRecorder{logs: logs, dispatcher: dispatcher, logger: logger, metrics: metrics}
}

// Record attempts to persist one audit entry. It never returns an error.
func (a *AuditRecorder) Record(ctx context.Context, entry *domain.OperationLog) {
	if a == nil || a.logs == nil {
		return
	}
	err := a.logs.Create(ctx, entry)
	if err == nil {
		return
	}

	if a.logger != nil {
		a.logger.Error("audit write failed",
			zap.Int64("work_log_id", entry.WorkLogID),
			zap.String("operation", string(entry.Type)),
			zap.Error(err),
		)
	}
	a.metrics.RecordAuditFailure(string(entry.Type))
	if a.dispatcher != nil {
		_ = a.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventAuditWriteFailed,
			WorkLogID: entry.WorkLogID,
			ActorID:   entry.UserID,
			Timestamp: time.Now(),
			Payload: events.AuditWriteFailedPayload{
				OperationType: entry.Type,
				Reason:        err.Error(),
			},
		})
	}
}
