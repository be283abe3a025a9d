package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"floorplan/internal/common/config"
	"floorplan/internal/common/health"
	"floorplan/internal/common/middleware"
	"floorplan/internal/gateway/handlers"
	"floorplan/internal/gateway/proxy"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// API Gateway
// ============================================================

func main() {
	cfg := config.Load()
	log.SetLevel(config.ParseLevel(cfg.LogLevel))

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "API Gateway",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	health.New(map[string]health.Check{
		"tables": upstreamCheck(cfg.TablesURL + "/health/live"),
	}).Register(app)

	// ============================================================
	// Docs
	// ============================================================

	handlers.RegisterDocs(app)

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group("/api/v1")

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "API Gateway v1",
			"status":  "ok",
		})
	})

	// ============================================================
	// Service Routes (Proxy)
	// ============================================================

	// Table Management Service
	tables := proxy.New(cfg.TablesURL, time.Duration(cfg.WriteTimeout)*time.Second)
	api.All("/restaurant/*", tables.Handler())

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Infof("Starting API Gateway on %s (env: %s)", addr, cfg.Environment)
	log.Infof("Proxying /api/v1/restaurant/* to %s", cfg.TablesURL)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// upstreamCheck проверяет, что апстрим отвечает 2xx.
func upstreamCheck(url string) health.Check {
	client := &http.Client{Timeout: 2 * time.Second}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	}
}
