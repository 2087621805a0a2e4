package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/parcel-helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/parcel-helpdesk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Tickets   *handlers.TicketsHandler
	Ops       *handlers.OpsHandler
	Metrics   *observability.Metrics
	UploadDir string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	if cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir)
	}

	tickets := app.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/notes", cfg.Tickets.AddNote)
	tickets.Post("/:id/reports", cfg.Tickets.ReportProblem)

	app.Get("/customers/search", cfg.Tickets.SearchCustomers)
	app.Get("/dashboard/stats", cfg.Tickets.Stats)

	cron := app.Group("/cron", cfg.Ops.RequireCronSecret)
	cron.Post("/check-sla", cfg.Ops.CheckSLA)
	cron.Get("/check-sla", cfg.Ops.CheckSLA)

	app.Post("/line/test", cfg.Ops.LineTest)
}
