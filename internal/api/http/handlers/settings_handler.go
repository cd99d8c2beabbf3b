package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/worklog-service/internal/api/dto"
	"github.com/spec-kit/worklog-service/internal/auth"
	"github.com/spec-kit/worklog-service/internal/domain"
	"github.com/spec-kit/worklog-service/internal/service"
	apperrors "github.com/spec-kit/worklog-service/pkg/util"
)

// SettingsHandler serves department and category option endpoints.
type SettingsHandler struct {
	service *service.SettingsService
}

// NewSettingsHandler constructs handler.
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: settingsService}
}

// ListDepartments GET /api/settings/departments.
func (h *SettingsHandler) ListDepartments(c *fiber.Ctx) error {
	return h.list(c, domain.OptionKindDepartment)
}

// ListCategories GET /api/settings/categories.
func (h *SettingsHandler) ListCategories(c *fiber.Ctx) error {
	return h.list(c, domain.OptionKindCategory)
}

// CreateDepartment POST /api/settings/departments.
func (h *SettingsHandler) CreateDepartment(c *fiber.Ctx) error {
	return h.create(c, domain.OptionKindDepartment)
}

// CreateCategory POST /api/settings/categories.
func (h *SettingsHandler) CreateCategory(c *fiber.Ctx) error {
	return h.create(c, domain.OptionKindCategory)
}

// UpdateOption PUT /api/settings/options/:id.
func (h *SettingsHandler) UpdateOption(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.SettingOptionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	option, err := h.service.UpdateOption(c.Context(), user, id, service.SettingOptionInput{
		Name:     req.Name,
		Floor:    req.Floor,
		Position: req.Position,
		IsActive: req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromSettingOption(*option)})
}

// SchemaVersion GET /api/settings/schema.
func (h *SettingsHandler) SchemaVersion(c *fiber.Ctx) error {
	version, err := h.service.SchemaVersion(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"version": version}})
}

func (h *SettingsHandler) list(c *fiber.Ctx, kind domain.OptionKind) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	options, err := h.service.ListOptions(c.Context(), user, kind)
	if err != nil {
		return err
	}
	items := make([]dto.SettingOptionResponse, 0, len(options))
	for _, option := range options {
		items = append(items, dto.FromSettingOption(option))
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *SettingsHandler) create(c *fiber.Ctx, kind domain.OptionKind) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SettingOptionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	option, err := h.service.CreateOption(c.Context(), user, kind, service.SettingOptionInput{
		Name:     req.Name,
		Floor:    req.Floor,
		Position: req.Position,
		IsActive: req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromSettingOption(*option)})
}
