package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/property-service/internal/domain"
	"github.com/spec-kit/property-service/internal/repository"
	apperrors "github.com/spec-kit/property-service/pkg/util"
)

// WorkerService manages the worker roster.
type WorkerService struct {
	workers     repository.WorkerRepository
	communities repository.CommunityRepository
	logger      *zap.Logger
}

// NewWorkerService constructs the service.
func NewWorkerService(workers repository.WorkerRepository, communities repository.CommunityRepository, logger *zap.Logger) *WorkerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerService{workers: workers, communities: communities, logger: logger}
}

// CreateWorkerInput describes a new roster entry.
type CreateWorkerInput struct {
	CommunityID string
	Name        string
	Email       string
	JobRoles    []domain.Skill
}

// CreateWorker registers a worker in an active community.
func (s *WorkerService) CreateWorker(ctx context.Context, input CreateWorkerInput) (*domain.Worker, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if len(input.JobRoles) == 0 {
		return nil, apperrors.NewValidationError("at least one job role required", nil)
	}
	for _, role := range input.JobRoles {
		if !domain.ValidSkill(role) {
			return nil, apperrors.NewValidationError("unknown job role", map[string]any{"job_role": role})
		}
	}

	community, err := s.communities.GetByID(ctx, input.CommunityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("community", map[string]any{"community_id": input.CommunityID})
		}
		return nil, apperrors.NewStorageUnavailable(err)
	}
	if !community.IsActive {
		return nil, apperrors.NewConflict("community inactive", map[string]any{"community_id": community.ID})
	}

	worker := &domain.Worker{
		CommunityID: input.CommunityID,
		Name:        strings.TrimSpace(input.Name),
		Email:       strings.TrimSpace(input.Email),
		JobRoles:    input.JobRoles,
		Active:      true,
	}
	if err := s.workers.Create(ctx, worker); err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	s.logger.Info("worker created",
		zap.String("worker_id", worker.ID),
		zap.String("community_id", worker.CommunityID))
	return worker, nil
}

// GetWorker fetches one worker.
func (s *WorkerService) GetWorker(ctx context.Context, workerID string) (*domain.Worker, error) {
	worker, err := s.workers.GetByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewWorkerNotFound(workerID)
		}
		return nil, apperrors.NewStorageUnavailable(err)
	}
	return worker, nil
}

// ListWorkers returns the roster matching the filter.
func (s *WorkerService) ListWorkers(ctx context.Context, filter repository.WorkerFilter) ([]domain.Worker, error) {
	workers, err := s.workers.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	return workers, nil
}

// SetWorkerActive toggles availability. Deactivation does not touch the
// worker's current assignments; stuck ones are rerouted by the sweeps.
func (s *WorkerService) SetWorkerActive(ctx context.Context, workerID string, active bool) (*domain.Worker, error) {
	worker, err := s.GetWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if worker.Active == active {
		return worker, nil
	}
	worker.Active = active
	if err := s.workers.Update(ctx, worker); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewWorkerNotFound(workerID)
		}
		return nil, apperrors.NewStorageUnavailable(err)
	}
	s.logger.Info("worker availability changed",
		zap.String("worker_id", worker.ID),
		zap.Bool("active", active))
	return worker, nil
}
