package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/worklog-service/internal/api/http"
	"github.com/spec-kit/worklog-service/internal/api/http/handlers"
	"github.com/spec-kit/worklog-service/internal/auth"
	"github.com/spec-kit/worklog-service/internal/config"
	"github.com/spec-kit/worklog-service/internal/events"
	"github.com/spec-kit/worklog-service/internal/observability"
	"github.com/spec-kit/worklog-service/internal/persistence"
	"github.com/spec-kit/worklog-service/internal/repository"
	"github.com/spec-kit/worklog-service/internal/service"
	"github.com/spec-kit/worklog-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	workLogRepo := repository.NewWorkLogRepository(pool)
	operationLogRepo := repository.NewOperationLogRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	loginLogRepo := repository.NewLoginLogRepository(pool)
	photoRepo := repository.NewPhotoRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	audit := service.NewAuditRecorder(operationLogRepo, dispatcher, logger, metrics)

	workLogService := service.NewWorkLogService(service.WorkLogDependencies{
		WorkLogRepo:  workLogRepo,
		SettingsRepo: settingsRepo,
		HistoryRepo:  operationLogRepo,
		Audit:        audit,
		Dispatcher:   dispatcher,
	})
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:     userRepo,
		LoginLogRepo: loginLogRepo,
		Tokens:       tokens,
		Logger:       logger,
		BcryptCost:   cfg.Auth.BcryptCost,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:     userRepo,
		LoginLogRepo: loginLogRepo,
		BcryptCost:   cfg.Auth.BcryptCost,
	})
	photoService := service.NewPhotoService(service.PhotoDependencies{
		PhotoRepo:   photoRepo,
		WorkLogRepo: workLogRepo,
		Audit:       audit,
		Dispatcher:  dispatcher,
	})
	statsService := service.NewStatsService(service.StatsDependencies{
		StatsRepo: statsRepo,
		Cache:     redis.Client,
		Logger:    logger,
		CacheTTL:  cfg.Stats.CacheTTL(),
	})
	settingsService := service.NewSettingsService(settingsRepo)
	alertService := service.NewAlertService(dispatcher, logger, cfg.Alert)

	worker.StartAlertWorker(alertService)
	statsService.RegisterInvalidation(dispatcher)

	if err := authService.EnsureDefaultAdmin(ctx, cfg.Auth.BootstrapUsername, cfg.Auth.BootstrapPassword); err != nil {
		logger.Fatal("failed to ensure bootstrap admin", zap.Error(err))
	}
	if version, err := settingsService.SchemaVersion(ctx); err == nil {
		logger.Info("settings schema", zap.Int("version", version))
	}

	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		WorkLogs:       handlers.NewWorkLogsHandler(workLogService),
		Photos:         handlers.NewPhotosHandler(photoService),
		Users:          handlers.NewUsersHandler(userService, authService),
		Stats:          handlers.NewStatsHandler(statsService, workLogService),
		Settings:       handlers.NewSettingsHandler(settingsService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
