package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"gorm.io/gorm"
)

// Health reports whether the API and its database are reachable.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			apierrors.ServiceUnavailable(c, "Database unreachable")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Solver Marketplace API is running",
		})
	}
}
