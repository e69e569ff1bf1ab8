package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TenantFox/internal/pkg/billing"
	"github.com/ManuelReschke/TenantFox/internal/pkg/constants"
	"github.com/ManuelReschke/TenantFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/TenantFox/internal/pkg/tenantcontext"
)

const webhookTimeout = 15 * time.Second

// BillingController exposes the plan catalog, the subscription and the provider webhook.
type BillingController struct {
	billing *billing.Service
}

func NewBillingController(svc *billing.Service) *BillingController {
	return &BillingController{billing: svc}
}

// GET /billing/plans
func (bc *BillingController) HandleListPlans(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"plans": entitlements.Catalog()})
}

// GET /billing/subscription
func (bc *BillingController) HandleGetSubscription(c *fiber.Ctx) error {
	p, err := tenantcontext.Require(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"subscription": serializeSubscription(p.Subscription)})
}

// PATCH /billing/subscription
func (bc *BillingController) HandlePatchSubscription(c *fiber.Ctx) error {
	p, err := tenantcontext.Require(c)
	if err != nil {
		return err
	}
	var change billing.PlanChange
	if err := parseBody(c, &change); err != nil {
		return err
	}

	sub, err := bc.billing.ChangePlan(c.UserContext(), p.Organization.ID, change)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"subscription": serializeSubscription(sub)})
}

// POST /billing/webhooks/stripe
func (bc *BillingController) HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	ctx, cancel := context.WithTimeout(c.UserContext(), webhookTimeout)
	defer cancel()

	res, err := bc.billing.HandleWebhook(ctx, billing.WebhookDelivery{
		Body:          rawBody,
		Signature:     c.Get(constants.HeaderStripeSignature),
		EventIDHeader: c.Get(constants.HeaderStripeEventID),
	})
	if err != nil {
		return err
	}

	if res.Outcome == billing.OutcomeDuplicate {
		return c.JSON(fiber.Map{
			"status":          "duplicate",
			"idempotency_key": res.IdempotencyKey,
			"event_type":      res.EventType,
		})
	}
	return c.JSON(fiber.Map{
		"status":               "processed",
		"idempotency_key":      res.IdempotencyKey,
		"event_type":           res.EventType,
		"updated_subscription": res.SubscriptionUpdated,
	})
}
