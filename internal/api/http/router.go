package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/worklog-service/internal/api/http/handlers"
	"github.com/spec-kit/worklog-service/internal/auth"
	"github.com/spec-kit/worklog-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	WorkLogs       *handlers.WorkLogsHandler
	Photos         *handlers.PhotosHandler
	Users          *handlers.UsersHandler
	Stats          *handlers.StatsHandler
	Settings       *handlers.SettingsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Post("/auth/login", cfg.Auth.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/auth/me", cfg.Auth.Me)
	protected.Post("/auth/password/change", cfg.Auth.ChangePassword)

	logs := protected.Group("/logs")
	logs.Get("/deleted", auth.RequireManagerial(), cfg.WorkLogs.ListDeleted)
	logs.Get("", cfg.WorkLogs.List)
	logs.Post("", auth.RequireCapability(domain.CapabilityCreate), cfg.WorkLogs.Create)
	logs.Get("/:id", cfg.WorkLogs.Get)
	logs.Put("/:id", auth.RequireCapability(domain.CapabilityUpdate), cfg.WorkLogs.Update)
	logs.Delete("/:id", auth.RequireCapability(domain.CapabilityDelete), cfg.WorkLogs.Delete)
	logs.Post("/:id/restore", auth.RequireManagerial(), cfg.WorkLogs.Restore)
	logs.Get("/:id/operations", auth.RequireManagerial(), cfg.WorkLogs.Operations)
	logs.Get("/:id/photos", cfg.Photos.List)
	logs.Post("/:id/photos", auth.RequireCapability(domain.CapabilityUpdate), cfg.Photos.Attach)

	protected.Delete("/photos/:id", auth.RequireCapability(domain.CapabilityDelete), cfg.Photos.Remove)

	users := protected.Group("/users", auth.RequireCapability(domain.CapabilityManageUsers))
	users.Get("", cfg.Users.List)
	users.Post("", cfg.Users.Create)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", cfg.Users.Update)
	users.Post("/:id/reset-password", cfg.Users.ResetPassword)
	protected.Get("/login-logs", auth.RequireCapability(domain.CapabilityManageUsers), cfg.Users.LoginLogs)

	protected.Get("/stats/summary", auth.RequireCapability(domain.CapabilityViewStats), cfg.Stats.Summary)
	protected.Get("/export/logs.csv", auth.RequireCapability(domain.CapabilityExportData), cfg.Stats.Export)

	settings := protected.Group("/settings")
	settings.Get("/departments", cfg.Settings.ListDepartments)
	settings.Get("/categories", cfg.Settings.ListCategories)
	settings.Get("/schema", cfg.Settings.SchemaVersion)
	settings.Post("/departments", auth.RequireManagerial(), cfg.Settings.CreateDepartment)
	settings.Post("/categories", auth.RequireManagerial(), cfg.Settings.CreateCategory)
	settings.Put("/options/:id", auth.RequireManagerial(), cfg.Settings.UpdateOption)
}
