package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TenantFox/internal/pkg/account"
	"github.com/ManuelReschke/TenantFox/internal/pkg/tenantcontext"
)

// AuthController handles registration and token issuance.
type AuthController struct {
	accounts *account.Service
}

func NewAuthController(accounts *account.Service) *AuthController {
	return &AuthController{accounts: accounts}
}

// POST /auth/register
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var in account.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	session, err := ac.accounts.Register(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(serializeSession(session))
}

// POST /auth/login
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var in account.LoginInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	session, err := ac.accounts.Login(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(serializeSession(session))
}

// POST /auth/tokens/rotate
func (ac *AuthController) HandleRotateToken(c *fiber.Ctx) error {
	p, err := tenantcontext.Require(c)
	if err != nil {
		return err
	}

	token, err := ac.accounts.RotateToken(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"token": token, "token_type": "Bearer"})
}

func serializeSession(s *account.Session) fiber.Map {
	return fiber.Map{
		"token":        s.Token,
		"token_type":   "Bearer",
		"organization": serializeOrganization(s.Organization),
		"user":         serializeUser(s.User),
		"subscription": serializeSubscription(s.Subscription),
	}
}
