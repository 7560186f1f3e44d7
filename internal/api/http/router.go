package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health           *handlers.HealthHandler
	Policies         *handlers.PoliciesHandler
	SLA              *handlers.SLAHandler
	Routing          *handlers.RoutingHandler
	TenantMiddleware *auth.TenantMiddleware
	Metrics          *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	slaGroup := app.Group("/sla", cfg.TenantMiddleware.Handle)
	slaGroup.Post("/policies", cfg.Policies.Create)
	slaGroup.Get("/policies", cfg.Policies.List)
	slaGroup.Get("/policies/:id", cfg.Policies.Get)
	slaGroup.Put("/policies/:id", cfg.Policies.Update)
	slaGroup.Delete("/policies/:id", cfg.Policies.Delete)

	slaGroup.Post("/events", cfg.SLA.PostEvent)
	slaGroup.Post("/check", cfg.SLA.Check)
	slaGroup.Get("/tickets/:ticketId/instance", cfg.SLA.GetTicketInstance)
	slaGroup.Post("/tickets/:ticketId/instance", cfg.SLA.CreateTicketInstance)

	routingGroup := app.Group("/routing", cfg.TenantMiddleware.Handle)
	routingGroup.Post("/suggest", cfg.Routing.Suggest)
	routingGroup.Post("/suggestions", cfg.Routing.Suggestions)
}
