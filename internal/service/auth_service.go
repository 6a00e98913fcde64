package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dicri-platform/casefile-gateway/internal/models"
	"github.com/dicri-platform/casefile-gateway/pkg/config"
	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
)

// AuthService validates bearer tokens issued by the platform's login
// service. Token issuance itself happens elsewhere; the gateway only needs
// the reviewer identity embedded in the claims, and it forwards the raw
// token to the upstream API untouched.
type AuthService struct {
	cfg config.JWTConfig
}

// NewAuthService constructs an AuthService.
func NewAuthService(cfg config.JWTConfig) *AuthService {
	return &AuthService{cfg: cfg}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}
