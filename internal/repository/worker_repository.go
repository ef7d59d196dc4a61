package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/property-service/internal/domain"
)

// WorkerRepository handles persistence for maintenance workers.
type WorkerRepository interface {
	Create(ctx context.Context, worker *domain.Worker) error
	Update(ctx context.Context, worker *domain.Worker) error
	GetByID(ctx context.Context, id string) (*domain.Worker, error)
	List(ctx context.Context, filter WorkerFilter) ([]domain.Worker, error)
}

// WorkerFilter defines query params for worker lookup. SkillsAny matches
// workers holding at least one of the given skills.
type WorkerFilter struct {
	CommunityID *string
	SkillsAny   []domain.Skill
	Active      *bool
	Limit       int
	Offset      int
}

type workerRepository struct {
	pool *pgxpool.Pool
}

// NewWorkerRepository instantiates the repository.
func NewWorkerRepository(pool *pgxpool.Pool) WorkerRepository {
	return &workerRepository{pool: pool}
}

func (r *workerRepository) Create(ctx context.Context, worker *domain.Worker) error {
	const query = `
        INSERT INTO workers (community_id, name, email, job_roles, assigned_issues, active_flag)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	assigned := worker.AssignedIssues
	if assigned == nil {
		assigned = []string{}
	}
	return r.pool.QueryRow(ctx, query,
		worker.CommunityID,
		worker.Name,
		worker.Email,
		skillsToStrings(worker.JobRoles),
		assigned,
		worker.Active,
	).Scan(&worker.ID, &worker.CreatedAt, &worker.UpdatedAt)
}

func (r *workerRepository) Update(ctx context.Context, worker *domain.Worker) error {
	const query = `
        UPDATE workers
        SET name=$1, email=$2, job_roles=$3, active_flag=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		worker.Name,
		worker.Email,
		skillsToStrings(worker.JobRoles),
		worker.Active,
		worker.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *workerRepository) GetByID(ctx context.Context, id string) (*domain.Worker, error) {
	const query = `
        SELECT id, community_id, name, email, job_roles, assigned_issues, active_flag, created_at, updated_at
        FROM workers WHERE id=$1`
	var worker domain.Worker
	var roles []string
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&worker.ID,
		&worker.CommunityID,
		&worker.Name,
		&worker.Email,
		&roles,
		&worker.AssignedIssues,
		&worker.Active,
		&worker.CreatedAt,
		&worker.UpdatedAt,
	); err != nil {
		return nil, err
	}
	worker.JobRoles = stringsToSkills(roles)
	return &worker, nil
}

func (r *workerRepository) List(ctx context.Context, filter WorkerFilter) ([]domain.Worker, error) {
	query := `
        SELECT id, community_id, name, email, job_roles, assigned_issues, active_flag, created_at, updated_at
        FROM workers`
	args := []any{}
	clauses := []string{}

	if filter.CommunityID != nil {
		args = append(args, *filter.CommunityID)
		clauses = append(clauses, fmt.Sprintf("community_id=$%d", len(args)))
	}
	if len(filter.SkillsAny) > 0 {
		args = append(args, skillsToStrings(filter.SkillsAny))
		clauses = append(clauses, fmt.Sprintf("job_roles && $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	// Stable identity order keeps selection deterministic.
	query += " ORDER BY id ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Worker
	for rows.Next() {
		var worker domain.Worker
		var roles []string
		if err := rows.Scan(
			&worker.ID,
			&worker.CommunityID,
			&worker.Name,
			&worker.Email,
			&roles,
			&worker.AssignedIssues,
			&worker.Active,
			&worker.CreatedAt,
			&worker.UpdatedAt,
		); err != nil {
			return nil, err
		}
		worker.JobRoles = stringsToSkills(roles)
		result = append(result, worker)
	}
	return result, rows.Err()
}

func skillsToStrings(skills []domain.Skill) []string {
	result := make([]string, len(skills))
	for i, skill := range skills {
		result[i] = string(skill)
	}
	return result
}

func stringsToSkills(values []string) []domain.Skill {
	result := make([]domain.Skill, len(values))
	for i, value := range values {
		result[i] = domain.Skill(value)
	}
	return result
}
