// Package server composes the application: repositories, services, session
// handling and routes, assembled once at startup.
package server

import (
	"crypto/sha256"
	"encoding/base64"

	"glucolog/internal/config"
	"glucolog/internal/database"
	"glucolog/internal/handlers"
	"glucolog/internal/middleware"
	"glucolog/internal/repositories"
	"glucolog/internal/services"
	"glucolog/internal/session"
	"glucolog/internal/views"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// Options tweaks construction for tests.
type Options struct {
	DisableRequestLog bool
	HashCost          int // bcrypt cost; zero keeps the default
}

// New builds the Fiber app. publisher may be nil to disable domain events.
func New(cfg *config.Config, db *gorm.DB, publisher services.EventPublisher, opts Options) *fiber.App {
	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	entryRepo := repositories.NewGORMEntryRepository(db)

	// --- Services ---
	authService := services.NewAuthService(userRepo, publisher)
	if opts.HashCost > 0 {
		authService.WithHashCost(opts.HashCost)
	}
	entryService := services.NewEntryService(entryRepo, publisher)

	// --- Session ---
	sessions := session.NewManager(session.Config{
		Expiration:   cfg.SessionExpiration,
		CookieSecure: cfg.CookieSecure,
	})

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, sessions)
	dashboardHandler := handlers.NewDashboardHandler(entryService, sessions, cfg.DashboardLimit)
	healthHandler := handlers.NewHealthHandler(func() error { return database.Ping(db) })

	app := fiber.New(fiber.Config{
		AppName:               "glucolog",
		Views:                 views.NewEngine(),
		ViewsLayout:           views.Layout,
		ErrorHandler:          handlers.NewErrorHandler(),
		DisableStartupMessage: true,
	})

	// --- Middleware ---
	app.Use(recover.New())
	if !opts.DisableRequestLog {
		app.Use(logger.New())
	}
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: CookieKey(cfg.SecretKey),
	}))
	app.Use(sessions.Handler())
	app.Use(middleware.LoadUser(sessions, authService))

	// --- Routes ---
	healthHandler.RegisterRoutes(app)
	authHandler.RegisterRoutes(app)
	dashboardHandler.RegisterRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Page not found.")
	})

	return app
}

// CookieKey derives the base64 AES-256 key encryptcookie expects from an
// arbitrary secret string.
func CookieKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}
