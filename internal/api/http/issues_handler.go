package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/property-service/internal/api/dto"
	"github.com/spec-kit/property-service/internal/auth"
	"github.com/spec-kit/property-service/internal/domain"
	"github.com/spec-kit/property-service/internal/repository"
	"github.com/spec-kit/property-service/internal/service"
	apperrors "github.com/spec-kit/property-service/pkg/util"
)

// IssuesHandler serves the resident-facing issue endpoints.
type IssuesHandler struct {
	issues *service.IssueService
}

// NewIssuesHandler constructs the handler.
func NewIssuesHandler(issues *service.IssueService) *IssuesHandler {
	return &IssuesHandler{issues: issues}
}

// Raise reports a new resident issue.
func (h *IssuesHandler) Raise(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Resident == nil {
		return apperrors.NewForbidden("resident required")
	}

	var req dto.RaiseIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	reporter := service.Reporter{
		Kind:        domain.ActorKindResident,
		ID:          principal.Resident.ID,
		CommunityID: principal.Resident.CommunityID,
		UnitCode:    principal.Resident.UnitCode,
	}
	issue, err := h.issues.RaiseIssue(c.Context(), reporter, service.RaiseIssueInput{
		CategoryType:  domain.CategoryType(req.CategoryType),
		Category:      req.Category,
		OtherCategory: req.OtherCategory,
		Description:   req.Description,
		Location:      req.Location,
		Priority:      domain.IssuePriority(req.Priority),
	})
	if err != nil {
		return err
	}
	return c.Status(nethttp.StatusCreated).JSON(dto.IssueFromDomain(issue))
}

// List returns the resident's own issues.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Resident == nil {
		return apperrors.NewForbidden("resident required")
	}

	filter := repository.IssueFilter{
		CommunityID: &principal.Resident.CommunityID,
		ReporterID:  &principal.Resident.ID,
		Limit:       c.QueryInt("limit", 50),
		Offset:      c.QueryInt("offset", 0),
	}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []domain.IssueStatus{domain.IssueStatus(status)}
	}

	issues, err := h.issues.ListIssues(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.IssuesFromDomain(issues))
}

// Get returns one issue owned by the resident.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Resident == nil {
		return apperrors.NewForbidden("resident required")
	}

	issue, err := h.issues.GetIssue(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if issue.ReporterID != principal.Resident.ID {
		return apperrors.NewForbidden("issue belongs to another resident")
	}
	return c.JSON(dto.IssueFromDomain(issue))
}

// Confirm accepts the resolution of the resident's issue.
func (h *IssuesHandler) Confirm(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Resident == nil {
		return apperrors.NewForbidden("resident required")
	}

	var req dto.ConfirmResolutionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return apperrors.NewValidationError("rating must be between 1 and 5", nil)
	}

	actor := service.Actor{Kind: domain.ActorKindResident, ID: principal.Resident.ID}
	issue, err := h.issues.ConfirmResolution(c.Context(), actor, c.Params("id"), req.Rating, req.Feedback)
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueFromDomain(issue))
}

// Reject reopens the resident's issue.
func (h *IssuesHandler) Reject(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Resident == nil {
		return apperrors.NewForbidden("resident required")
	}

	var req dto.RejectResolutionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	actor := service.Actor{Kind: domain.ActorKindResident, ID: principal.Resident.ID}
	issue, err := h.issues.RejectResolution(c.Context(), actor, c.Params("id"), req.Feedback)
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueFromDomain(issue))
}
