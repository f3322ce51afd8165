package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/http/handlers"
	"github.com/spec-kit/triage-service/internal/auth"
	"github.com/spec-kit/triage-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Actors         *handlers.ActorsHandler
	Drafts         *handlers.DraftsHandler
	Tickets        *handlers.TicketsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	adapterScopes := auth.RequireScope(
		domain.ScopeDA, domain.ScopeSupervisor, domain.ScopeClient,
	)

	actors := app.Group("/actors", cfg.AuthMiddleware.Handle, adapterScopes)
	actors.Post("/", cfg.Actors.Register)
	actors.Get("/", cfg.Actors.List)
	actors.Get("/:identity/:role", cfg.Actors.Get)

	// Drafts belong to the DA-facing adapter; nobody else builds tickets.
	drafts := app.Group("/drafts", cfg.AuthMiddleware.Handle, auth.RequireScope(domain.ScopeDA))
	drafts.Post("/", cfg.Drafts.Start)
	drafts.Get("/:owner", cfg.Drafts.Get)
	drafts.Patch("/:owner", cfg.Drafts.Edit)
	drafts.Post("/:owner/finalize", cfg.Drafts.Finalize)
	drafts.Delete("/:owner", cfg.Drafts.Abandon)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, adapterScopes)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/search", cfg.Tickets.Search)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/:id/transitions", cfg.Tickets.ApplyTransition)
	tickets.Post("/:id/reminders", auth.RequireScope(domain.ScopeClient), cfg.Tickets.ScheduleReminder)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireScope(domain.ScopeAdmin))
	admin.Get("/tickets", cfg.Admin.ListTickets)
	admin.Get("/tickets/:id/activity", cfg.Admin.TicketActivity)
	admin.Get("/actors", cfg.Admin.ListActors)
}
