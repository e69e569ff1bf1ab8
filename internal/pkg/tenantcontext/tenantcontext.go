package tenantcontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TenantFox/internal/pkg/account"
	"github.com/ManuelReschke/TenantFox/internal/pkg/apperror"
)

// Set stores the authenticated principal for the rest of the request.
func Set(c *fiber.Ctx, p *account.Principal) {
	c.Locals(KeyPrincipal, p)
	c.Locals(KeyOrganizationID, p.Organization.ID)
	c.Locals(KeyUserID, p.User.ID)
}

// Get returns the principal, or nil on unauthenticated routes.
func Get(c *fiber.Ctx) *account.Principal {
	if p, ok := c.Locals(KeyPrincipal).(*account.Principal); ok {
		return p
	}
	return nil
}

// Require returns the principal or an authentication error.
func Require(c *fiber.Ctx) (*account.Principal, error) {
	p := Get(c)
	if p == nil {
		return nil, apperror.New(apperror.AuthenticationFailed, "Authentication required.")
	}
	return p, nil
}

// GetOrganizationID returns the caller's organization ID, or 0 if not authenticated
func GetOrganizationID(c *fiber.Ctx) uint {
	if p := Get(c); p != nil {
		return p.Organization.ID
	}
	return 0
}

// IsOwner checks if the caller administers its organization
func IsOwner(c *fiber.Ctx) bool {
	p := Get(c)
	return p != nil && p.User.IsOwner()
}
