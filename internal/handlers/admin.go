package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/solver-marketplace-api/internal/dto"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/services"
	"go.uber.org/zap"
)

// AdminHandler serves maintenance endpoints. Every route is admin only.
type AdminHandler struct {
	maintenance *services.MaintenanceService
	log         *zap.Logger
}

func NewAdminHandler(maintenance *services.MaintenanceService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		maintenance: maintenance,
		log:         log,
	}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	counts, err := h.maintenance.Stats(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}

// Seed loads demo data. force=true wipes lifecycle data first.
func (h *AdminHandler) Seed(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	force := false
	if raw := c.Query("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid force flag")
			return
		}
		force = parsed
	}

	result, err := h.maintenance.Seed(c.Request.Context(), actor, force)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Wipe deletes every project, request, task and payout. Users are kept.
func (h *AdminHandler) Wipe(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	if err := h.maintenance.Wipe(c.Request.Context(), actor); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Lifecycle data deleted",
	})
}

func (h *AdminHandler) ListPayouts(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	payouts, err := h.maintenance.ListPayouts(c.Request.Context(), actor, c.Query("solver_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payouts": dto.ToPayoutDTOs(payouts),
	})
}
