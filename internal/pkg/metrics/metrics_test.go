package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/TenantFox/internal/pkg/apperror"
)

func TestObserveHelpers(t *testing.T) {
	m := NewMetrics(NewRegistry())

	m.ObserveWebhook("stripe", "applied")
	m.ObserveWebhook("stripe", "applied")
	m.ObserveWebhook("stripe", "duplicate_skipped")
	m.ObserveFeatureCheck("sso", false)
	m.ObserveLimitRejection("max_users")
	m.ObservePlanChange("webhook", "growth")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.WebhookEventsTotal.WithLabelValues("stripe", "applied")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.WebhookEventsTotal.WithLabelValues("stripe", "duplicate_skipped")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FeatureChecksTotal.WithLabelValues("sso", "false")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LimitRejectionsTotal.WithLabelValues("max_users")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PlanChangesTotal.WithLabelValues("webhook", "growth")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveWebhook("stripe", "applied")
		m.ObserveFeatureCheck("sso", true)
		m.ObserveLimitRejection("max_users")
		m.ObservePlanChange("api", "starter")
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	registry := NewRegistry()
	m := NewMetrics(registry)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status, body := apperror.Response(err)
			return c.Status(status).JSON(body)
		},
	})
	app.Use(m.Middleware())
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/denied", func(c *fiber.Ctx) error {
		return apperror.New(apperror.AuthorizationDenied, "nope")
	})
	app.Get("/metrics", Handler(registry))

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/denied", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/ok", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/denied", "403")))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "tenantfox_http_requests_total")
	assert.Contains(t, string(body), "go_goroutines")
}
