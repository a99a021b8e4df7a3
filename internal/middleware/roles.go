package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
)

// RequireRole only lets actors holding one of roles through. Must run after
// RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, exists := GetActor(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		apierrors.RespondWithError(c, http.StatusForbidden,
			apierrors.NewAPIError(string(apierrors.KindWrongRole), "This action requires a different role"))
		c.Abort()
	}
}
