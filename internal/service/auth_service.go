package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oliveandembers/backoffice-api/internal/models"
	appErrors "github.com/oliveandembers/backoffice-api/pkg/errors"
)

// AuthService validates access tokens issued by the admin service. This API
// never issues tokens itself.
type AuthService struct {
	secret []byte
}

// NewAuthService constructs the token validator.
func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: []byte(secret)}
}

// ValidateToken parses and verifies a JWT, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	if claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token missing subject")
	}
	return claims, nil
}

// CanResolveApprovals reports whether the role may approve or reject change
// requests. Staff submit changes; only admins and the owner review them.
func CanResolveApprovals(role models.UserRole) bool {
	return role == models.RoleOwner || role == models.RoleAdmin
}

// CanRunSync reports whether the role may trigger sync operations.
func CanRunSync(role models.UserRole) bool {
	return role == models.RoleOwner || role == models.RoleAdmin || role == models.RoleService
}
