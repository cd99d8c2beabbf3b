package handlers

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/worklog-service/internal/auth"
	"github.com/spec-kit/worklog-service/internal/domain"
	"github.com/spec-kit/worklog-service/internal/service"
	apperrors "github.com/spec-kit/worklog-service/pkg/util"
)

// StatsHandler serves aggregate counters and the CSV export.
type StatsHandler struct {
	stats    *service.StatsService
	workLogs *service.WorkLogService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(statsService *service.StatsService, workLogService *service.WorkLogService) *StatsHandler {
	return &StatsHandler{stats: statsService, workLogs: workLogService}
}

// Summary GET /api/stats/summary.
func (h *StatsHandler) Summary(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	summary, err := h.stats.Summary(c.Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

var exportHeader = []string{
	"serial_number", "description", "resolution", "category", "department",
	"extension", "reporter", "resolver", "status", "notes", "created_at", "updated_at",
}

// Export GET /api/export/logs.csv.
func (h *StatsHandler) Export(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	query := service.WorkLogListQuery{
		Status:     queryString(c, "status"),
		Category:   queryString(c, "category"),
		SearchTerm: queryString(c, "search"),
	}
	items, err := h.workLogs.Export(c.Context(), user, query)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(exportHeader); err != nil {
		return apperrors.NewInternalError(err)
	}
	for i := range items {
		if err := writer.Write(exportRow(&items[i])); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewInternalError(err)
	}

	fileName := "worklogs-" + time.Now().Format("20060102") + ".csv"
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	c.Set(fiber.HeaderContentLength, strconv.Itoa(buf.Len()))
	return c.Send(buf.Bytes())
}

func exportRow(log *domain.WorkLog) []string {
	return []string{
		log.SerialNumber,
		log.Description,
		log.Resolution,
		log.Category,
		log.Department,
		log.Extension,
		log.Reporter,
		log.Resolver,
		string(log.Status),
		log.Notes,
		log.CreatedAt.Format(time.RFC3339),
		log.UpdatedAt.Format(time.RFC3339),
	}
}
