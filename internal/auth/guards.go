package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/worklog-service/internal/domain"
	apperrors "github.com/spec-kit/worklog-service/pkg/util"
)

// RequireCapability rejects callers that lack the capability.
func RequireCapability(capability domain.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !HasCapability(user, capability) {
			return apperrors.NewForbidden("missing capability: " + string(capability))
		}
		return c.Next()
	}
}

// RequireManagerial rejects callers outside the admin/manager roles. Used for
// the deleted-record and audit-history surfaces.
func RequireManagerial() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !managerial(user) {
			return apperrors.NewForbidden("admin or manager role required")
		}
		return c.Next()
	}
}
