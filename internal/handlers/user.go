package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/solver-marketplace-api/internal/authz"
	"github.com/yukikurage/solver-marketplace-api/internal/dto"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/middleware"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/services"
	"go.uber.org/zap"
)

type UserHandler struct {
	users *services.UserService
	log   *zap.Logger
}

func NewUserHandler(users *services.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		users: users,
		log:   log,
	}
}

// ListUsers returns every user. Admin only.
func (h *UserHandler) ListUsers(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	users, err := h.users.ListUsers(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": dto.ToUserDTOs(users),
	})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), c.Param("uid"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateMe patches the caller's own profile
func (h *UserHandler) UpdateMe(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), actor, services.UpdateProfileInput{
		Name:   req.Name,
		Bio:    req.Bio,
		Avatar: req.Avatar,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// ChangeRole sets another user's role. Admin only.
func (h *UserHandler) ChangeRole(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	role := models.Role(strings.ToUpper(string(req.Role)))
	user, err := h.users.ChangeRole(c.Request.Context(), actor, c.Param("uid"), role)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// BootstrapAdmin grants ADMIN to a user. Anonymous callers must present the
// bootstrap secret.
func (h *UserHandler) BootstrapAdmin(c *gin.Context) {
	var req dto.BootstrapAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var actor *authz.Actor
	if current, ok := middleware.GetActor(c); ok {
		actor = &current
	}

	user, err := h.users.BootstrapAdmin(c.Request.Context(), actor, services.BootstrapAdminInput{
		UID:    req.UID,
		Email:  req.Email,
		Secret: req.Secret,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}
