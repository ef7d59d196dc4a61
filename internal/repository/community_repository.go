package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/property-service/internal/domain"
)

// CommunityRepository handles persistence for communities.
type CommunityRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Community, error)
	List(ctx context.Context, limit, offset int) ([]domain.Community, error)
}

type communityRepository struct {
	pool *pgxpool.Pool
}

// NewCommunityRepository instantiates the repository.
func NewCommunityRepository(pool *pgxpool.Pool) CommunityRepository {
	return &communityRepository{pool: pool}
}

func (r *communityRepository) GetByID(ctx context.Context, id string) (*domain.Community, error) {
	const query = `
        SELECT id, name, address, active_flag, created_at, updated_at
        FROM communities WHERE id=$1`
	var community domain.Community
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&community.ID,
		&community.Name,
		&community.Address,
		&community.IsActive,
		&community.CreatedAt,
		&community.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) List(ctx context.Context, limit, offset int) ([]domain.Community, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, name, address, active_flag, created_at, updated_at
        FROM communities ORDER BY name ASC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Community
	for rows.Next() {
		var community domain.Community
		if err := rows.Scan(
			&community.ID,
			&community.Name,
			&community.Address,
			&community.IsActive,
			&community.CreatedAt,
			&community.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, community)
	}
	return result, rows.Err()
}
