package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// ============================================================
// Logger Middleware
// ============================================================

// Logger логирует запросы вместе с организацией из X-Organization-ID.
// Пробы /health/* не логируются.
func Logger() fiber.Handler {
	return logger.New(logger.Config{
		Next:       skipHealthChecks,
		Format:     "[${time}] ${status} - ${latency} ${method} ${path} | org: ${reqHeader:" + OrgHeader + "}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}

func skipHealthChecks(c fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/health/")
}
