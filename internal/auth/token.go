package auth

import (
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/property-service/internal/domain"
)

// TokenManager validates JWT tokens issued by the platform auth service.
type TokenManager struct {
	secret []byte
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// Claims describes the JWT payload shared with the auth service.
type Claims struct {
	SubjectID   string             `json:"sub"`
	Subject     domain.SubjectType `json:"subject"`
	Role        *domain.StaffRole  `json:"role,omitempty"`
	CommunityID string             `json:"community_id,omitempty"`
	jwt.RegisteredClaims
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
