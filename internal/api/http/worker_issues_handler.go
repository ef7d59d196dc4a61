package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/property-service/internal/api/dto"
	"github.com/spec-kit/property-service/internal/auth"
	"github.com/spec-kit/property-service/internal/domain"
	"github.com/spec-kit/property-service/internal/repository"
	"github.com/spec-kit/property-service/internal/service"
	apperrors "github.com/spec-kit/property-service/pkg/util"
)

// WorkerIssuesHandler serves the worker-facing queue endpoints.
type WorkerIssuesHandler struct {
	issues *service.IssueService
}

// NewWorkerIssuesHandler constructs the handler.
func NewWorkerIssuesHandler(issues *service.IssueService) *WorkerIssuesHandler {
	return &WorkerIssuesHandler{issues: issues}
}

// Queue lists the worker's open assignments.
func (h *WorkerIssuesHandler) Queue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Worker == nil {
		return apperrors.NewForbidden("worker required")
	}

	filter := repository.IssueFilter{
		WorkerID: &principal.Worker.ID,
		Statuses: domain.OpenStatuses(),
		Limit:    c.QueryInt("limit", 50),
		Offset:   c.QueryInt("offset", 0),
	}
	issues, err := h.issues.ListIssues(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.IssuesFromDomain(issues))
}

// Start begins work on an assigned issue.
func (h *WorkerIssuesHandler) Start(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Worker == nil {
		return apperrors.NewForbidden("worker required")
	}

	actor := service.Actor{Kind: domain.ActorKindWorker, ID: principal.Worker.ID}
	issue, err := h.issues.StartWork(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueFromDomain(issue))
}

// Resolve marks work complete.
func (h *WorkerIssuesHandler) Resolve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Worker == nil {
		return apperrors.NewForbidden("worker required")
	}

	actor := service.Actor{Kind: domain.ActorKindWorker, ID: principal.Worker.ID}
	issue, err := h.issues.ResolveWork(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueFromDomain(issue))
}
