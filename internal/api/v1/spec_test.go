package apiv1

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)

	assert.Equal(t, "TenantFox API", doc.Info.Title)
	webhook := doc.Paths.Value("/billing/webhooks/stripe")
	require.NotNil(t, webhook)
	assert.NotNil(t, webhook.Post)
	assert.NotNil(t, doc.Paths.Value("/features/{feature_key}"))
}

func TestSpecHandler(t *testing.T) {
	app := fiber.New()
	app.Get("/docs/openapi.json", SpecHandler())

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/docs/openapi.json", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"openapi":"3.0.3"`)
}
