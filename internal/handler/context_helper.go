package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/campusops/admissions-api/internal/middleware"
	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
)

type adminLoader interface {
	LoadAdmin(ctx context.Context, adminID string) (*models.Admin, error)
}

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextAdminKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// currentAdmin resolves the authenticated admin behind the request. The
// services take the full record because department scoping reads fields
// the token does not carry authoritatively.
func currentAdmin(c *gin.Context, auth adminLoader) (*models.Admin, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return auth.LoadAdmin(c.Request.Context(), claims.AdminID)
}
