package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const identityKey = "auth_identity"

// IdentityGuard validates bearer credentials and attaches the resolved identity
// to the request. It never touches the store.
type IdentityGuard struct {
	verifier CredentialVerifier
}

// NewIdentityGuard constructs middleware.
func NewIdentityGuard(verifier CredentialVerifier) *IdentityGuard {
	return &IdentityGuard{verifier: verifier}
}

// Handle enforces authentication for protected routes.
func (g *IdentityGuard) Handle(c *fiber.Ctx) error {
	raw := c.Get(fiber.HeaderAuthorization)
	if raw == "" {
		return apperrors.NewUnauthorized("No token, authorization denied")
	}
	return g.resolve(c, raw)
}

// Optional authenticates when a credential is presented and otherwise lets the
// request through anonymously. A presented but invalid credential still fails.
func (g *IdentityGuard) Optional(c *fiber.Ctx) error {
	raw := c.Get(fiber.HeaderAuthorization)
	if raw == "" {
		return c.Next()
	}
	return g.resolve(c, raw)
}

func (g *IdentityGuard) resolve(c *fiber.Ctx, header string) error {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	identity, err := g.verifier.Verify(strings.TrimSpace(parts[1]))
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return apperrors.NewUnauthorized("Token has expired")
		}
		return apperrors.NewUnauthorized("Token is not valid")
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(domain.Identity)
	return identity, ok
}
