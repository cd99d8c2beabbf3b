package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/worklog-service/internal/config"
	"github.com/spec-kit/worklog-service/internal/events"
)

// AlertService surfaces events an operator should see: audit writes that
// could not be persisted, and destructive lifecycle transitions.
type AlertService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.AlertConfig
}

// NewAlertService creates the service.
func NewAlertService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.AlertConfig) *AlertService {
	return &AlertService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (a *AlertService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventAuditWriteFailed, a.handleAuditWriteFailed)
	a.dispatcher.Subscribe(events.EventWorkLogDeleted, a.handleWorkLogDeleted)
	a.dispatcher.Subscribe(events.EventWorkLogRestored, a.handleWorkLogRestored)
}

func (a *AlertService) handleAuditWriteFailed(ctx context.Context, event events.Event) error {
	a.logger.Error("AuditWriteFailed",
		zap.Int64("work_log_id", event.WorkLogID),
		zap.Any("payload", event.Payload))
	a.sendWebhookStub(ctx, event)
	return nil
}

func (a *AlertService) handleWorkLogDeleted(ctx context.Context, event events.Event) error {
	a.logger.Info("WorkLogDeleted",
		zap.Int64("work_log_id", event.WorkLogID),
		zap.Int64("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	a.sendWebhookStub(ctx, event)
	return nil
}

func (a *AlertService) handleWorkLogRestored(ctx context.Context, event events.Event) error {
	a.logger.Info("WorkLogRestored",
		zap.Int64("work_log_id", event.WorkLogID),
		zap.Int64("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	a.sendWebhookStub(ctx, event)
	return nil
}

func (a *AlertService) sendWebhookStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(a.cfg.WebhookURL) == "" {
		return
	}
	a.logger.Debug("sendWebhookStub",
		zap.String("url", a.cfg.WebhookURL),
		zap.Int64("work_log_id", event.WorkLogID),
		zap.String("event_type", string(event.Type)))
}
