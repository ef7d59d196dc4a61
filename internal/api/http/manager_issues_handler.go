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

// ManagerIssuesHandler serves the staff-facing issue endpoints.
type ManagerIssuesHandler struct {
	issues *service.IssueService
}

// NewManagerIssuesHandler constructs the handler.
func NewManagerIssuesHandler(issues *service.IssueService) *ManagerIssuesHandler {
	return &ManagerIssuesHandler{issues: issues}
}

func staffActor(c *fiber.Ctx) (*auth.Principal, service.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.SubjectType != domain.SubjectTypeStaff {
		return nil, service.Actor{}, apperrors.NewForbidden("staff required")
	}
	return principal, service.Actor{Kind: domain.ActorKindStaff, ID: principal.SubjectID}, nil
}

// RaiseCommunity reports a community-area issue on behalf of staff.
func (h *ManagerIssuesHandler) RaiseCommunity(c *fiber.Ctx) error {
	principal, _, err := staffActor(c)
	if err != nil {
		return err
	}

	var req dto.RaiseIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	reporter := service.Reporter{
		Kind:        domain.ActorKindStaff,
		ID:          principal.SubjectID,
		CommunityID: principal.CommunityID,
	}
	issue, err := h.issues.RaiseIssue(c.Context(), reporter, service.RaiseIssueInput{
		CategoryType:  domain.CategoryTypeCommunity,
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

// List searches issues in the staff member's community.
func (h *ManagerIssuesHandler) List(c *fiber.Ctx) error {
	principal, _, err := staffActor(c)
	if err != nil {
		return err
	}

	filter := repository.IssueFilter{
		CommunityID: &principal.CommunityID,
		Limit:       c.QueryInt("limit", 50),
		Offset:      c.QueryInt("offset", 0),
	}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []domain.IssueStatus{domain.IssueStatus(status)}
	}
	if priority := c.Query("priority"); priority != "" {
		filter.Priorities = []domain.IssuePriority{domain.IssuePriority(priority)}
	}
	if categoryType := c.Query("category_type"); categoryType != "" {
		ct := domain.CategoryType(categoryType)
		filter.CategoryType = &ct
	}
	if category := c.Query("category"); category != "" {
		filter.Categories = []string{category}
	}
	if workerID := c.Query("worker_id"); workerID != "" {
		filter.WorkerID = &workerID
	}

	issues, err := h.issues.ListIssues(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.IssuesFromDomain(issues))
}

// Get returns one issue in the staff member's community.
func (h *ManagerIssuesHandler) Get(c *fiber.Ctx) error {
	principal, _, err := staffActor(c)
	if err != nil {
		return err
	}
	issue, err := h.issues.GetIssue(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if principal.CommunityID != "" && issue.CommunityID != principal.CommunityID {
		return apperrors.NewForbidden("issue belongs to another community")
	}
	return c.JSON(dto.IssueFromDomain(issue))
}

// History returns the audit trail.
func (h *ManagerIssuesHandler) History(c *fiber.Ctx) error {
	if _, _, err := staffActor(c); err != nil {
		return err
	}
	entries, err := h.issues.ListHistory(c.Context(), c.Params("id"),
		c.QueryInt("limit", 100), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(dto.HistoryFromDomain(entries))
}

// Assign manually attaches a worker.
func (h *ManagerIssuesHandler) Assign(c *fiber.Ctx) error {
	_, actor, err := staffActor(c)
	if err != nil {
		return err
	}

	var req dto.AssignWorkerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.WorkerID == "" {
		return apperrors.NewValidationError("worker_id required", nil)
	}

	issue, err := h.issues.AssignWorker(c.Context(), actor, c.Params("id"), req.WorkerID,
		service.AssignInput{Deadline: req.Deadline, Remarks: req.Remarks})
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueFromDomain(issue))
}

// Reassign moves the issue to a different worker.
func (h *ManagerIssuesHandler) Reassign(c *fiber.Ctx) error {
	_, actor, err := staffActor(c)
	if err != nil {
		return err
	}

	var req dto.AssignWorkerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.WorkerID == "" {
		return apperrors.NewValidationError("worker_id required", nil)
	}

	issue, err := h.issues.ReassignWorker(c.Context(), actor, c.Params("id"), req.WorkerID,
		service.AssignInput{Deadline: req.Deadline, Remarks: req.Remarks})
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueFromDomain(issue))
}

// Hold parks the issue ON_HOLD.
func (h *ManagerIssuesHandler) Hold(c *fiber.Ctx) error {
	_, actor, err := staffActor(c)
	if err != nil {
		return err
	}

	var req dto.HoldIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	issue, err := h.issues.HoldIssue(c.Context(), actor, c.Params("id"), req.Remarks)
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueFromDomain(issue))
}

// Close force-closes the issue.
func (h *ManagerIssuesHandler) Close(c *fiber.Ctx) error {
	_, actor, err := staffActor(c)
	if err != nil {
		return err
	}
	issue, err := h.issues.CloseIssue(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueFromDomain(issue))
}

// Reject dismisses an invalid report.
func (h *ManagerIssuesHandler) Reject(c *fiber.Ctx) error {
	_, actor, err := staffActor(c)
	if err != nil {
		return err
	}

	var req dto.HoldIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	issue, err := h.issues.RejectIssue(c.Context(), actor, c.Params("id"), req.Remarks)
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueFromDomain(issue))
}

// FlagMisassigned reroutes the issue through auto-assignment.
func (h *ManagerIssuesHandler) FlagMisassigned(c *fiber.Ctx) error {
	_, actor, err := staffActor(c)
	if err != nil {
		return err
	}
	issue, err := h.issues.FlagMisassigned(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.IssueFromDomain(issue))
}
