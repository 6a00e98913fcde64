package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dicri-platform/casefile-gateway/internal/models"
	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
	"github.com/dicri-platform/casefile-gateway/pkg/response"
)

// RequireRoles restricts a route to the listed roles. Review transitions
// are coordinator-only; listings accept any authenticated role.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
