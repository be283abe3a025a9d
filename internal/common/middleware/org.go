package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Organization Context
// ============================================================

const (
	OrgHeader  = "X-Organization-ID"
	DefaultOrg = "default"

	orgKey = "org_id"
)

// OrgContext кладет организацию из заголовка X-Organization-ID в Locals.
func OrgContext() fiber.Handler {
	return func(c fiber.Ctx) error {
		org := strings.TrimSpace(c.Get(OrgHeader))
		if org == "" {
			org = DefaultOrg
		}
		c.Locals(orgKey, org)
		return c.Next()
	}
}

// OrgID возвращает организацию текущего запроса.
func OrgID(c fiber.Ctx) string {
	if org, ok := c.Locals(orgKey).(string); ok && org != "" {
		return org
	}
	return DefaultOrg
}
