package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/property-service/internal/domain"
)

// ResidentRepository looks up unit occupants. Resident accounts are
// managed by the external auth system; this service only reads them.
type ResidentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Resident, error)
}

type residentRepository struct {
	pool *pgxpool.Pool
}

// NewResidentRepository instantiates the repository.
func NewResidentRepository(pool *pgxpool.Pool) ResidentRepository {
	return &residentRepository{pool: pool}
}

func (r *residentRepository) GetByID(ctx context.Context, id string) (*domain.Resident, error) {
	const query = `
        SELECT id, community_id, name, email, unit_code, active_flag, created_at, updated_at
        FROM residents WHERE id=$1`
	var resident domain.Resident
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&resident.ID,
		&resident.CommunityID,
		&resident.Name,
		&resident.Email,
		&resident.UnitCode,
		&resident.Active,
		&resident.CreatedAt,
		&resident.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &resident, nil
}
