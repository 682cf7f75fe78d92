package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/policy"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Users       *handlers.UsersHandler
	Tickets     *handlers.TicketsHandler
	Guard       *auth.IdentityGuard
	Policy      *policy.Policy
	Metrics     *observability.Metrics
	RateLimiter *RateLimiter
}

// RegisterRoutes wires HTTP routes. Whether a ticket route demands a
// credential comes from the policy table, not from the route itself.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth", cfg.RateLimiter.Handler())
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", cfg.Guard.Handle, cfg.Users.Me)

	guardFor := func(op policy.Operation) fiber.Handler {
		if cfg.Policy.AllowsAnonymous(op) {
			return cfg.Guard.Optional
		}
		return cfg.Guard.Handle
	}

	app.Get("/tickets", guardFor(policy.OpList), cfg.Tickets.ListTickets)
	app.Post("/createTicket", guardFor(policy.OpCreate), cfg.Tickets.CreateTicket)
	app.Delete("/tickets/:id", guardFor(policy.OpDelete), cfg.Tickets.DeleteTicket)
	app.Put("/tickets/:id/resolve", cfg.Guard.Handle, auth.RequireRole(domain.RoleAdmin), cfg.Tickets.ResolveTicket)
}
