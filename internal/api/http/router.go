package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/property-service/internal/auth"
	"github.com/spec-kit/property-service/internal/domain"
)

// Handlers groups the route handlers for registration.
type Handlers struct {
	Issues        *IssuesHandler
	WorkerIssues  *WorkerIssuesHandler
	ManagerIssues *ManagerIssuesHandler
	Workers       *WorkersHandler
	Health        *HealthHandler
}

// RegisterRoutes mounts all routes on the app.
func RegisterRoutes(app *fiber.App, authMw *auth.AuthMiddleware, h Handlers) {
	app.Get("/healthz", h.Health.Live)
	app.Get("/readyz", h.Health.Ready)

	api := app.Group("/api/v1", authMw.Handle)

	resident := api.Group("/issues", auth.RequireResident())
	resident.Post("/", h.Issues.Raise)
	resident.Get("/", h.Issues.List)
	resident.Get("/:id", h.Issues.Get)
	resident.Post("/:id/confirm", h.Issues.Confirm)
	resident.Post("/:id/reject", h.Issues.Reject)

	workerQueue := api.Group("/worker/issues", auth.RequireWorker())
	workerQueue.Get("/", h.WorkerIssues.Queue)
	workerQueue.Post("/:id/start", h.WorkerIssues.Start)
	workerQueue.Post("/:id/resolve", h.WorkerIssues.Resolve)

	staff := api.Group("/manage/issues",
		auth.RequireStaffRole(domain.StaffRoleManager, domain.StaffRoleAdmin, domain.StaffRoleSecurity))
	staff.Post("/", h.ManagerIssues.RaiseCommunity)
	staff.Get("/", h.ManagerIssues.List)
	staff.Get("/:id", h.ManagerIssues.Get)
	staff.Get("/:id/history", h.ManagerIssues.History)

	managers := api.Group("/manage/issues",
		auth.RequireStaffRole(domain.StaffRoleManager, domain.StaffRoleAdmin))
	managers.Post("/:id/assign", h.ManagerIssues.Assign)
	managers.Post("/:id/reassign", h.ManagerIssues.Reassign)
	managers.Post("/:id/hold", h.ManagerIssues.Hold)
	managers.Post("/:id/close", h.ManagerIssues.Close)
	managers.Post("/:id/reject", h.ManagerIssues.Reject)
	managers.Post("/:id/flag-misassigned", h.ManagerIssues.FlagMisassigned)

	admin := api.Group("/manage/workers",
		auth.RequireStaffRole(domain.StaffRoleManager, domain.StaffRoleAdmin))
	admin.Post("/", h.Workers.Create)
	admin.Get("/", h.Workers.List)
	admin.Get("/:id", h.Workers.Get)
	admin.Patch("/:id/active", h.Workers.SetActive)
}
