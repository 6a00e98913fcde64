package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/dicri-platform/casefile-gateway/internal/middleware"
	"github.com/dicri-platform/casefile-gateway/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func tokenFromContext(c *gin.Context) string {
	value, exists := c.Get(middleware.ContextTokenKey)
	if !exists {
		return ""
	}
	token, _ := value.(string)
	return token
}
