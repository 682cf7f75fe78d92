package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// RequireRole permits the request only when the attached identity holds role.
// It must run after IdentityGuard.Handle.
func RequireRole(role domain.Role) fiber.Handler {
	message := fmt.Sprintf("Access denied: %s only", roleLabel(role))
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if identity.Role != role {
			return apperrors.NewForbidden(message)
		}
		return c.Next()
	}
}

// RequireIdentity rejects anonymous requests that slipped past an optional guard.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

func roleLabel(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return "Admins"
	case domain.RoleStudent:
		return "Students"
	default:
		return string(role)
	}
}
