package dto

import (
	"time"

	"github.com/spec-kit/property-service/internal/domain"
)

// CreateWorkerRequest registers a worker.
type CreateWorkerRequest struct {
	CommunityID string   `json:"community_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	JobRoles    []string `json:"job_roles"`
}

// SetWorkerActiveRequest toggles availability.
type SetWorkerActiveRequest struct {
	Active bool `json:"active"`
}

// WorkerResponse is the public representation of a worker.
type WorkerResponse struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"community_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	JobRoles    []string  `json:"job_roles"`
	Load        int       `json:"load"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WorkerFromDomain maps a domain worker to its response shape.
func WorkerFromDomain(worker *domain.Worker) WorkerResponse {
	roles := make([]string, len(worker.JobRoles))
	for i, role := range worker.JobRoles {
		roles[i] = string(role)
	}
	return WorkerResponse{
		ID:          worker.ID,
		CommunityID: worker.CommunityID,
		Name:        worker.Name,
		Email:       worker.Email,
		JobRoles:    roles,
		Load:        worker.Load(),
		Active:      worker.Active,
		CreatedAt:   worker.CreatedAt,
		UpdatedAt:   worker.UpdatedAt,
	}
}

// WorkersFromDomain maps a slice of workers.
func WorkersFromDomain(workers []domain.Worker) []WorkerResponse {
	result := make([]WorkerResponse, len(workers))
	for i := range workers {
		result[i] = WorkerFromDomain(&workers[i])
	}
	return result
}
