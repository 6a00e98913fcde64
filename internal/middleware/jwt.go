package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dicri-platform/casefile-gateway/internal/service"
	appErrors "github.com/dicri-platform/casefile-gateway/pkg/errors"
	"github.com/dicri-platform/casefile-gateway/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// ContextTokenKey stores the raw bearer token, forwarded verbatim to the
// legacy upstream on every call.
const ContextTokenKey = "bearerToken"

// JWT protects routes by requiring a valid access token.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextTokenKey, parts[1])
		c.Next()
	}
}
