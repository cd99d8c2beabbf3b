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

// WorkLogsHandler serves the work-log lifecycle endpoints.
type WorkLogsHandler struct {
	service *service.WorkLogService
}

// NewWorkLogsHandler constructs handler.
func NewWorkLogsHandler(workLogService *service.WorkLogService) *WorkLogsHandler {
	return &WorkLogsHandler{service: workLogService}
}

// Create POST /api/logs.
func (h *WorkLogsHandler) Create(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	raw := map[string]any{}
	if err := c.BodyParser(&raw); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	log, err := h.service.Create(c.Context(), user, domain.PayloadFromMap(raw), provenance(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromWorkLog(log)})
}

// Update PUT /api/logs/:id.
func (h *WorkLogsHandler) Update(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	raw := map[string]any{}
	if err := c.BodyParser(&raw); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	log, err := h.service.Update(c.Context(), user, id, domain.PayloadFromMap(raw), provenance(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromWorkLog(log)})
}

// Delete DELETE /api/logs/:id.
func (h *WorkLogsHandler) Delete(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.service.Delete(c.Context(), user, id, provenance(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

// Restore POST /api/logs/:id/restore.
func (h *WorkLogsHandler) Restore(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	log, err := h.service.Restore(c.Context(), user, id, provenance(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromWorkLog(log)})
}

// Get GET /api/logs/:id.
func (h *WorkLogsHandler) Get(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	log, err := h.service.Get(c.Context(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromWorkLog(log)})
}

// List GET /api/logs.
func (h *WorkLogsHandler) List(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, offset := parsePage(c)
	query := service.WorkLogListQuery{
		Status:         queryString(c, "status"),
		Category:       queryString(c, "category"),
		SearchTerm:     queryString(c, "search"),
		IncludeDeleted: c.QueryBool("include_deleted", false),
		Limit:          limit,
		Offset:         offset,
	}

	page, err := h.service.List(c.Context(), user, query)
	if err != nil {
		return err
	}
	items := make([]dto.WorkLogResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, dto.FromWorkLog(&page.Items[i]))
	}
	return c.JSON(fiber.Map{"data": items, "total": page.Total})
}

// ListDeleted GET /api/logs/deleted.
func (h *WorkLogsHandler) ListDeleted(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, offset := parsePage(c)
	page, err := h.service.ListDeleted(c.Context(), user, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.DeletedWorkLogResponse, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, dto.FromDeletedWorkLog(item))
	}
	return c.JSON(fiber.Map{"data": items, "total": page.Total})
}

// Operations GET /api/logs/:id/operations.
func (h *WorkLogsHandler) Operations(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.Context(), user, id)
	if err != nil {
		return err
	}
	items := make([]dto.OperationLogResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.FromHistoryEntry(entry))
	}
	return c.JSON(fiber.Map{"data": items})
}
