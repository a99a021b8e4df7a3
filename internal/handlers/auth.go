package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/solver-marketplace-api/internal/constants"
	"github.com/yukikurage/solver-marketplace-api/internal/dto"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/identity"
	"github.com/yukikurage/solver-marketplace-api/internal/services"
	"go.uber.org/zap"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	verifier *identity.Verifier
	users    *services.UserService
	log      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. verifier may be nil when token
// authentication is not configured.
func NewAuthHandler(verifier *identity.Verifier, users *services.UserService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		verifier: verifier,
		users:    users,
		log:      log,
	}
}

// CreateSession exchanges an identity provider token for a session cookie.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if h.verifier == nil {
		apierrors.ServiceUnavailable(c, "Token authentication is not configured")
		return
	}

	id, err := h.verifier.Verify(req.Token)
	if err != nil {
		apierrors.Unauthorized(c, "Invalid or expired identity token")
		return
	}

	user, err := h.users.EnsureUser(c.Request.Context(), *id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		h.log.Error("Failed to save session", zap.String("user_id", user.ID), zap.Error(err))
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}
