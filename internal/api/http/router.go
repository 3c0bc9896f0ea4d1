package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-bot/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-bot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Leaderboard    *handlers.LeaderboardHandler
	Admin          *handlers.AdminHandler
	Interaction    *handlers.InteractionHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	app.Get("/leaderboard", cfg.Leaderboard.Get)

	app.Post("/interactions", cfg.Interaction.Handle)

	protected := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireOperator())
	protected.Post("/leaderboard/reset", cfg.Leaderboard.Reset)
	protected.Put("/config/category-points", cfg.Admin.SetCategoryPoints)
	protected.Put("/config/category-channel", cfg.Admin.SetCategoryChannel)
	protected.Put("/config/logs-channel", cfg.Admin.SetLogsChannel)
	protected.Post("/config/roles/completion", cfg.Admin.AddCompletionRole)
	protected.Post("/config/roles/creation", cfg.Admin.AddCreationRole)
}
