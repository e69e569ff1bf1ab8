package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TenantFox/internal/pkg/account"
	"github.com/ManuelReschke/TenantFox/internal/pkg/constants"
	"github.com/ManuelReschke/TenantFox/internal/pkg/tenantcontext"
)

// Authenticator resolves a raw bearer token to its principal.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*account.Principal, error)
}

// TokenAuthMiddleware authenticates requests carrying an API token and stores
// the principal in the request locals.
func TokenAuthMiddleware(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := auth.Authenticate(c.UserContext(), extractTokenFromHeader(c))
		if err != nil {
			return err
		}
		tenantcontext.Set(c, p)
		return c.Next()
	}
}

func extractTokenFromHeader(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(c.Get(constants.HeaderAPIKey))
}
