package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/property-service/internal/api/dto"
	"github.com/spec-kit/property-service/internal/domain"
	"github.com/spec-kit/property-service/internal/repository"
	"github.com/spec-kit/property-service/internal/service"
	apperrors "github.com/spec-kit/property-service/pkg/util"
)

// WorkersHandler serves roster administration.
type WorkersHandler struct {
	workers *service.WorkerService
}

// NewWorkersHandler constructs the handler.
func NewWorkersHandler(workers *service.WorkerService) *WorkersHandler {
	return &WorkersHandler{workers: workers}
}

// Create registers a worker.
func (h *WorkersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateWorkerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	roles := make([]domain.Skill, len(req.JobRoles))
	for i, role := range req.JobRoles {
		roles[i] = domain.Skill(role)
	}
	worker, err := h.workers.CreateWorker(c.Context(), service.CreateWorkerInput{
		CommunityID: req.CommunityID,
		Name:        req.Name,
		Email:       req.Email,
		JobRoles:    roles,
	})
	if err != nil {
		return err
	}
	return c.Status(nethttp.StatusCreated).JSON(dto.WorkerFromDomain(worker))
}

// Get fetches one worker.
func (h *WorkersHandler) Get(c *fiber.Ctx) error {
	worker, err := h.workers.GetWorker(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.WorkerFromDomain(worker))
}

// List returns the roster.
func (h *WorkersHandler) List(c *fiber.Ctx) error {
	filter := repository.WorkerFilter{
		Limit:  c.QueryInt("limit", 100),
		Offset: c.QueryInt("offset", 0),
	}
	if communityID := c.Query("community_id"); communityID != "" {
		filter.CommunityID = &communityID
	}
	if skill := c.Query("skill"); skill != "" {
		filter.SkillsAny = []domain.Skill{domain.Skill(skill)}
	}
	if active := c.Query("active"); active != "" {
		isActive := active == "true"
		filter.Active = &isActive
	}

	workers, err := h.workers.ListWorkers(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.WorkersFromDomain(workers))
}

// SetActive toggles availability.
func (h *WorkersHandler) SetActive(c *fiber.Ctx) error {
	var req dto.SetWorkerActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	worker, err := h.workers.SetWorkerActive(c.Context(), c.Params("id"), req.Active)
	if err != nil {
		return err
	}
	return c.JSON(dto.WorkerFromDomain(worker))
}
