package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/worklog-service/internal/api/dto"
	"github.com/spec-kit/worklog-service/internal/auth"
	"github.com/spec-kit/worklog-service/internal/service"
	apperrors "github.com/spec-kit/worklog-service/pkg/util"
)

// PhotosHandler serves photo metadata endpoints.
type PhotosHandler struct {
	service *service.PhotoService
}

// NewPhotosHandler constructs handler.
func NewPhotosHandler(photoService *service.PhotoService) *PhotosHandler {
	return &PhotosHandler{service: photoService}
}

// Attach POST /api/logs/:id/photos.
func (h *PhotosHandler) Attach(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.AttachPhotoRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.FileName) == "" || strings.TrimSpace(req.StorageKey) == "" {
		return apperrors.NewValidationError("file_name and storage_key required", nil)
	}

	photo, err := h.service.Attach(c.Context(), user, id, service.PhotoInput{
		Type:         req.PhotoType,
		FileName:     req.FileName,
		OriginalName: req.OriginalName,
		StorageKey:   req.StorageKey,
		ThumbnailKey: req.ThumbnailKey,
		FileSize:     req.FileSize,
		MimeType:     req.MimeType,
		SortOrder:    req.SortOrder,
	}, provenance(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromPhoto(photo)})
}

// List GET /api/logs/:id/photos.
func (h *PhotosHandler) List(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	photos, err := h.service.List(c.Context(), user, id)
	if err != nil {
		return err
	}
	items := make([]dto.PhotoResponse, 0, len(photos))
	for i := range photos {
		items = append(items, dto.FromPhoto(&photos[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Remove DELETE /api/photos/:id.
func (h *PhotosHandler) Remove(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Remove(c.Context(), user, id, provenance(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}
