package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// Health Check Handlers
// ============================================================

// Check проверка зависимости для readiness (БД, апстрим).
type Check func(ctx context.Context) error

type Handler struct {
	checks  map[string]Check
	timeout time.Duration
}

func New(checks map[string]Check) *Handler {
	return &Handler{checks: checks, timeout: 2 * time.Second}
}

// Register вешает /health/live, /health/ready и /health/startup.
func (h *Handler) Register(router fiber.Router) {
	router.Get("/health/live", h.LivenessProbe)
	router.Get("/health/ready", h.ReadinessProbe)
	router.Get("/health/startup", h.StartupProbe)
}

// LivenessProbe проверяет, что приложение работает
func (h *Handler) LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// ReadinessProbe выполняет все проверки; любая ошибка дает 503.
func (h *Handler) ReadinessProbe(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	failed := fiber.Map{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			log.Warnf("[HEALTH] %s not ready: %v", name, err)
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not ready",
			"checks": failed,
		})
	}
	return c.JSON(fiber.Map{
		"status": "ready",
	})
}

// StartupProbe проверяет, что приложение успешно запустилось
func (h *Handler) StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "started",
	})
}
