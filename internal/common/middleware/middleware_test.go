package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrgContext(t *testing.T) {
	app := fiber.New()
	app.Use(OrgContext())
	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString(OrgID(c))
	})

	req := httptest.NewRequest("GET", "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, DefaultOrg, string(body))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(OrgHeader, "  bistro ")
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "bistro", string(body))
}

func TestOrgIDWithoutMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString(OrgID(c))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, DefaultOrg, string(body))
}

func TestCORSPreflight(t *testing.T) {
	app := fiber.New()
	app.Use(CORS())
	app.Get("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestLoggerSkipsHealthChecks(t *testing.T) {
	app := fiber.New()
	app.Use(func(c fiber.Ctx) error {
		if skipHealthChecks(c) {
			c.Set("X-Skip-Log", "1")
		}
		return c.Next()
	})
	app.Use(Logger())
	app.Get("/*", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest("GET", "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, "1", resp.Header.Get("X-Skip-Log"))

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/restaurant/table-management", nil))
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("X-Skip-Log"))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
