package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles in the case-management platform.
type UserRole string

const (
	RoleTechnician  UserRole = "tecnico"
	RoleCoordinator UserRole = "coordinador"
)

// JWTClaims represents the JWT payload for access tokens issued by the
// authentication service. The numeric user id doubles as the approver id
// attributed on review transitions.
type JWTClaims struct {
	UserID int64    `json:"user_id"`
	Name   string   `json:"nombre"`
	Role   UserRole `json:"rol"`
	jwt.RegisteredClaims
}

// Identity reports whether the claims resolve to a usable reviewer identity.
func (c *JWTClaims) Identity() bool {
	return c != nil && c.UserID > 0
}
