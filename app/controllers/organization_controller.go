package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TenantFox/internal/pkg/account"
	"github.com/ManuelReschke/TenantFox/internal/pkg/tenantcontext"
)

// OrganizationController serves the caller's organization and its members.
type OrganizationController struct {
	accounts *account.Service
}

func NewOrganizationController(accounts *account.Service) *OrganizationController {
	return &OrganizationController{accounts: accounts}
}

// GET /organizations/me
func (oc *OrganizationController) HandleGetMyOrganization(c *fiber.Ctx) error {
	p, err := tenantcontext.Require(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"organization": serializeOrganization(p.Organization),
		"subscription": serializeSubscription(p.Subscription),
		"user":         serializeUser(p.User),
	})
}

// GET /organizations/me/users
func (oc *OrganizationController) HandleListUsers(c *fiber.Ctx) error {
	p, err := tenantcontext.Require(c)
	if err != nil {
		return err
	}

	users, err := oc.accounts.ListMembers(c.UserContext(), p.Organization.ID)
	if err != nil {
		return err
	}
	out := make([]fiber.Map, 0, len(users))
	for i := range users {
		out = append(out, serializeUser(&users[i]))
	}
	return c.JSON(fiber.Map{"users": out})
}

// POST /organizations/me/users
func (oc *OrganizationController) HandleCreateUser(c *fiber.Ctx) error {
	p, err := tenantcontext.Require(c)
	if err != nil {
		return err
	}
	var in account.MemberInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	user, err := oc.accounts.CreateMember(c.UserContext(), p.Organization.ID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": serializeUser(user)})
}

// DELETE /organizations/me/users/:id
func (oc *OrganizationController) HandleDeleteUser(c *fiber.Ctx) error {
	p, err := tenantcontext.Require(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := oc.accounts.DeleteMember(c.UserContext(), p.Organization.ID, p.User.ID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
