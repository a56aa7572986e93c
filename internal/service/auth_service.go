package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sourcehire/talent-api/internal/models"
	"github.com/sourcehire/talent-api/pkg/config"
	appErrors "github.com/sourcehire/talent-api/pkg/errors"
)

// AuthService validates bearer tokens issued by the external identity
// service. Login, refresh and credential storage all live there; this
// service only checks signatures and maps claims to an owner id.
type AuthService struct {
	secret []byte
	issuer string
}

// NewAuthService constructs the token validator.
func NewAuthService(cfg config.JWTConfig) *AuthService {
	return &AuthService{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

// ValidateToken parses and verifies an access token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}

	if s.issuer != "" {
		issuer, issErr := claims.GetIssuer()
		if issErr != nil || issuer != s.issuer {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unexpected token issuer")
		}
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token carries no subject")
	}
	if claims.Role == "" {
		claims.Role = models.RoleRecruiter
	}

	return claims, nil
}
