package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/amly-app/daily-digest-api/internal/middleware"
	"github.com/amly-app/daily-digest-api/internal/models"
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

// teacherIDFromContext resolves the acting teacher from JWT claims. All
// tenant-scoped routes derive identity here instead of trusting a path or
// query parameter.
func teacherIDFromContext(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return ""
	}
	return claims.UserID
}
