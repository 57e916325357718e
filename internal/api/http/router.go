package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/firewatch/incident-service/internal/api/http/handlers"
	"github.com/firewatch/incident-service/internal/auth"
	"github.com/firewatch/incident-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Incidents *handlers.IncidentsHandler
	Admin     *handlers.AdminHandler
	Session   *handlers.SessionHandler
	Guard     *auth.GuardMiddleware
}

// RegisterRoutes wires HTTP routes. Every protected route declares its role
// requirement at registration; the guard middleware evaluates the caller's
// persisted credential on each navigation.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/login", cfg.Session.LoginView)
	app.Post("/session/logout", cfg.Session.Logout)
	app.Get("/session/watch", cfg.Session.Watch)

	incidents := app.Group("/incidents")
	incidents.Post("", cfg.Guard.RequireAny(), cfg.Incidents.Report)
	incidents.Get("", cfg.Guard.RequireRole(domain.RoleStation), cfg.Incidents.List)
	incidents.Get("/:id", cfg.Guard.RequireRole(domain.RoleStation), cfg.Incidents.Get)
	incidents.Patch("/:id/status", cfg.Guard.RequireRole(domain.RoleStation), cfg.Incidents.UpdateStatus)

	app.Get("/admin/overview", cfg.Guard.RequireRole(domain.RoleAdmin), cfg.Admin.Overview)
}
