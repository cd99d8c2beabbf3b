package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/worklog-service/internal/auth"
	"github.com/spec-kit/worklog-service/internal/domain"
	"github.com/spec-kit/worklog-service/internal/events"
	"github.com/spec-kit/worklog-service/internal/repository"
	apperrors "github.com/spec-kit/worklog-service/pkg/util"
)

const statsCacheKey = "worklog:stats:summary"

// StatsService serves aggregate counters, cached in Redis for a short TTL.
// Redis outages degrade to direct queries.
type StatsService struct {
	stats    repository.StatsRepository
	cache    *redis.Client
	logger   *zap.Logger
	cacheTTL time.Duration
}

// StatsDependencies bundles collaborators for the service.
type StatsDependencies struct {
	StatsRepo repository.StatsRepository
	Cache     *redis.Client
	Logger    *zap.Logger
	CacheTTL  time.Duration
}

// NewStatsService constructs the service.
func NewStatsService(deps StatsDependencies) *StatsService {
	return &StatsService{
		stats:    deps.StatsRepo,
		cache:    deps.Cache,
		logger:   deps.Logger,
		cacheTTL: deps.CacheTTL,
	}
}

// Summary returns the dashboard counters, gated on the view_stats capability.
func (s *StatsService) Summary(ctx context.Context, actor *domain.User) (*repository.StatsSummary, error) {
	if !auth.HasCapability(actor, domain.CapabilityViewStats) {
		return nil, apperrors.NewForbidden("view_stats capability required")
	}

	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	summary, err := s.stats.Summary(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.toCache(ctx, summary)
	return summary, nil
}

// RegisterInvalidation drops the cached summary whenever a work-log
// lifecycle event fires.
func (s *StatsService) RegisterInvalidation(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	handler := func(ctx context.Context, _ events.Event) error {
		s.Invalidate(ctx)
		return nil
	}
	dispatcher.Subscribe(events.EventWorkLogCreated, handler)
	dispatcher.Subscribe(events.EventWorkLogUpdated, handler)
	dispatcher.Subscribe(events.EventWorkLogDeleted, handler)
	dispatcher.Subscribe(events.EventWorkLogRestored, handler)
}

// Invalidate drops the cached summary. Called after work-log mutations.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey).Err(); err != nil && s.logger != nil {
		s.logger.Warn("failed to invalidate stats cache", zap.Error(err))
	}
}

func (s *StatsService) fromCache(ctx context.Context) *repository.StatsSummary {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.cache.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) && s.logger != nil {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		}
		return nil
	}
	var summary repository.StatsSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil
	}
	return &summary
}

func (s *StatsService) toCache(ctx context.Context, summary *repository.StatsSummary) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statsCacheKey, raw, s.cacheTTL).Err(); err != nil && s.logger != nil {
		s.logger.Warn("stats cache write failed", zap.Error(err))
	}
}
