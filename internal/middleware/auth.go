package middleware

import (
	"errors"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/solver-marketplace-api/internal/authz"
	"github.com/yukikurage/solver-marketplace-api/internal/constants"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/identity"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/services"
)

// RequireAuth resolves the caller from an identity provider bearer token or
// an established session and stores the actor in the context.
func RequireAuth(verifier *identity.Verifier, users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := resolveActor(c, verifier, users)
		if err != nil {
			respondAuthError(c, err)
			c.Abort()
			return
		}
		if actor == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyActor, *actor)
		c.Next()
	}
}

// OptionalAuth lets anonymous callers through but still rejects a bad token.
func OptionalAuth(verifier *identity.Verifier, users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := resolveActor(c, verifier, users)
		if err != nil {
			respondAuthError(c, err)
			c.Abort()
			return
		}
		if actor != nil {
			c.Set(constants.ContextKeyActor, *actor)
		}
		c.Next()
	}
}

// GetActor retrieves the current actor from context
func GetActor(c *gin.Context) (authz.Actor, bool) {
	value, exists := c.Get(constants.ContextKeyActor)
	if !exists {
		return authz.Actor{}, false
	}
	actor, ok := value.(authz.Actor)
	return actor, ok
}

// ActorFor builds the actor for a stored user.
func ActorFor(user *models.User) authz.Actor {
	return authz.Actor{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
}

func resolveActor(c *gin.Context, verifier *identity.Verifier, users *services.UserService) (*authz.Actor, error) {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		if verifier == nil {
			return nil, identity.ErrMissingKey
		}
		id, err := verifier.Verify(header)
		if err != nil {
			return nil, err
		}
		user, err := users.EnsureUser(c.Request.Context(), *id)
		if err != nil {
			return nil, err
		}
		actor := ActorFor(user)
		return &actor, nil
	}

	session := sessions.Default(c)
	userID, ok := session.Get(constants.ContextKeyUserID).(string)
	if !ok || userID == "" {
		return nil, nil
	}

	user, err := users.GetUser(c.Request.Context(), userID)
	if errors.Is(err, apierrors.ErrNotFound) {
		// Session outlived its user (e.g. after a wipe)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	actor := ActorFor(user)
	return &actor, nil
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidToken):
		apierrors.Unauthorized(c, "Invalid or expired identity token")
	case errors.Is(err, identity.ErrMissingKey):
		apierrors.Unauthorized(c, "Token authentication is not configured")
	default:
		apierrors.Respond(c, err)
	}
}
