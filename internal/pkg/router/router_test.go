package router

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiv1 "github.com/ManuelReschke/TenantFox/internal/api/v1"
	"github.com/ManuelReschke/TenantFox/internal/pkg/account"
	"github.com/ManuelReschke/TenantFox/internal/pkg/billing"
	"github.com/ManuelReschke/TenantFox/internal/pkg/database"
	"github.com/ManuelReschke/TenantFox/internal/pkg/metrics"
	"github.com/ManuelReschke/TenantFox/internal/pkg/ratelimit"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db := database.NewTestDB(t)
	registry := metrics.NewRegistry()
	m := metrics.NewMetrics(registry)

	app := fiber.New()
	InstallRouter(app, Dependencies{
		Accounts:  account.NewService(db, m, nil),
		Billing:   billing.NewServiceFromDB(db, "whsec_router"),
		Metrics:   m,
		Registry:  registry,
		RateLimit: ratelimit.Config{Max: 10, Window: time.Minute},
	})
	return app
}

// Every API route must be described in the embedded OpenAPI document.
func TestRoutesAreDocumented(t *testing.T) {
	app := newTestApp(t)
	doc, err := apiv1.GetSwagger()
	require.NoError(t, err)

	for _, r := range app.GetRoutes(true) {
		if r.Method == fiber.MethodHead || strings.HasPrefix(r.Path, "/docs") {
			continue
		}
		path := openAPIPath(r.Path)
		item := doc.Paths.Value(path)
		if !assert.NotNil(t, item, "route %s %s is not documented", r.Method, path) {
			continue
		}
		assert.NotNil(t, item.GetOperation(r.Method), "operation %s %s is not documented", r.Method, path)
	}
}

func TestPublicRoutes(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/health", "/billing/plans", "/metrics", "/docs/openapi.json"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
	}
}

func openAPIPath(path string) string {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if strings.HasPrefix(p, ":") {
			parts[i] = "{" + strings.TrimPrefix(p, ":") + "}"
		}
	}
	return strings.Join(parts, "/")
}
