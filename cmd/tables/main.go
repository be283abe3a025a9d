package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"floorplan/internal/common/config"
	"floorplan/internal/common/health"
	"floorplan/internal/common/middleware"
	"floorplan/internal/tables/handlers"
	"floorplan/internal/tables/repository"
	"floorplan/internal/tables/service"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Table Management Service
// ============================================================

func main() {
	cfg := config.Load()
	if os.Getenv("PORT") == "" {
		cfg.Port = "3003"
	}
	log.SetLevel(config.ParseLevel(cfg.LogLevel))

	db, err := repository.OpenSQLite(cfg.TablesDBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background()); err != nil {
		log.Fatalf("init db: %v", err)
	}

	tableService := service.NewTableService(repo, cfg.Editor.AdjacencyThreshold)
	tableHandler := handlers.NewTableHandler(tableService)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Table Management Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())
	app.Use(middleware.OrgContext())

	// ============================================================
	// Health Check Routes
	// ============================================================

	health.New(map[string]health.Check{
		"sqlite": repo.Ping,
	}).Register(app)

	// ============================================================
	// Table Routes
	// ============================================================

	tableHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Infof("Starting Table Management Service on %s (env: %s, db: %s)", addr, cfg.Environment, cfg.TablesDBPath)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
