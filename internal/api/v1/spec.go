package apiv1

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

//go:embed openapi.yml
var specYAML []byte

var (
	loadOnce sync.Once
	swagger  *openapi3.T
	loadErr  error
)

// GetSwagger returns the parsed and validated OpenAPI document of the HTTP API.
func GetSwagger() (*openapi3.T, error) {
	loadOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(specYAML)
		if err != nil {
			loadErr = fmt.Errorf("error loading openapi spec: %w", err)
			return
		}
		if err := doc.Validate(loader.Context); err != nil {
			loadErr = fmt.Errorf("invalid openapi spec: %w", err)
			return
		}
		swagger = doc
	})
	return swagger, loadErr
}

// SpecHandler serves the document as JSON.
func SpecHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := GetSwagger()
		if err != nil {
			return err
		}
		return c.JSON(doc)
	}
}
