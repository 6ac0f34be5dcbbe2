package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SuperKn4cky/LiveChat-Extension/internal/config"
	"github.com/SuperKn4cky/LiveChat-Extension/internal/database"
	"github.com/SuperKn4cky/LiveChat-Extension/internal/handler"
	"github.com/SuperKn4cky/LiveChat-Extension/internal/middleware"
	"github.com/SuperKn4cky/LiveChat-Extension/internal/repository"
	"github.com/SuperKn4cky/LiveChat-Extension/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()

	if cfg.IsProduction() && cfg.PairingCode == "dev-pairing-code" {
		log.Fatal("PAIRING_CODE must be set in production")
	}

	// Database
	db, err := database.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations applied successfully")

	// Repositories
	settingsRepo := repository.NewSettingsRepository(db)
	draftRepo := repository.NewDraftRepository(db)
	grantRepo := repository.NewGrantRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// Hub first: the permission prompter rides the options surface's socket
	hub := service.NewSurfaceHub()

	// Services
	authSvc, err := service.NewAuthService(sessionRepo, cfg.PairingCode, cfg.JWTSecret)
	if err != nil {
		log.Fatalf("Failed to init auth service: %v", err)
	}
	permSvc := service.NewPermissionService(grantRepo, hub)
	settingsSvc := service.NewSettingsService(settingsRepo, permSvc)
	ingestSvc := service.NewIngestService(settingsRepo, cfg.IngestTimeout)
	controller := service.NewController(settingsSvc, draftRepo, ingestSvc, hub)

	// Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    256 * 1024,
	})

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health
	healthH := handler.NewHealthHandler(db, hub)
	app.Get("/health", healthH.Health)
	app.Get("/ready", healthH.Ready)

	// API v1
	v1 := app.Group("/api/v1")

	// Pairing (public)
	authH := handler.NewAuthHandler(authSvc)
	auth := v1.Group("/auth")
	auth.Post("/pair", middleware.RateLimit(5, time.Minute), authH.Pair)
	auth.Post("/refresh", middleware.RateLimit(20, time.Minute), authH.Refresh)
	auth.Post("/logout", authH.Logout)

	// JWT-protected surface routes
	protected := v1.Group("", middleware.Auth(cfg.JWTSecret))

	settingsH := handler.NewSettingsHandler(settingsSvc, ingestSvc, permSvc)
	protected.Get("/settings", settingsH.Get)
	protected.Put("/settings", settingsH.Save)
	protected.Post("/settings/test", settingsH.Test)

	actionH := handler.NewActionHandler(controller)
	protected.Get("/compose/state", actionH.ComposeState)
	protected.Post("/actions/quick", actionH.Quick)
	protected.Post("/actions/compose", actionH.Compose)
	protected.Post("/actions/context", actionH.Context)

	// WebSocket
	wsH := handler.NewWSHandler(hub, authSvc, controller)
	app.Get("/ws", wsH.Upgrade)

	// Start hub
	go hub.Run()

	// Session janitor
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(6 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sessionRepo.CleanupExpired(cleanupCtx); err != nil {
					log.Printf("Session cleanup failed: %v", err)
				}
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Printf("LiveChat bridge running on :%s (%s)", cfg.Port, cfg.Env)

	<-quit
	log.Println("Shutting down...")
	_ = app.ShutdownWithTimeout(5 * time.Second)
	hub.Shutdown()
	log.Println("Server stopped")
}
