package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/property-service/internal/domain"
	"github.com/spec-kit/property-service/internal/repository"
	apperrors "github.com/spec-kit/property-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller. Residents and workers
// are loaded from storage; staff identity (manager/admin/security) is
// owned by the external auth service and carried in claims only.
type Principal struct {
	SubjectType domain.SubjectType
	Resident    *domain.Resident
	Worker      *domain.Worker
	Role        *domain.StaffRole
	CommunityID string
	SubjectID   string
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens    *TokenManager
	residents repository.ResidentRepository
	workers   repository.WorkerRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, residents repository.ResidentRepository, workers repository.WorkerRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, residents: residents, workers: workers}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{
		SubjectType: claims.Subject,
		Role:        claims.Role,
		CommunityID: claims.CommunityID,
		SubjectID:   claims.SubjectID,
	}

	switch claims.Subject {
	case domain.SubjectTypeResident:
		resident, err := m.residents.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewUnauthorized("resident not found")
			}
			return apperrors.MapError(err)
		}
		principal.Resident = resident
		principal.CommunityID = resident.CommunityID
	case domain.SubjectTypeWorker:
		worker, err := m.workers.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewUnauthorized("worker not found")
			}
			return apperrors.MapError(err)
		}
		principal.Worker = worker
		principal.CommunityID = worker.CommunityID
	case domain.SubjectTypeStaff:
		if claims.Role == nil {
			return apperrors.NewUnauthorized("staff role missing")
		}
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
