package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/solver-marketplace-api/internal/authz"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/middleware"
	"github.com/yukikurage/solver-marketplace-api/internal/services"
	"go.uber.org/zap"
)

// respondError writes err to the client. Failures that are not the caller's
// fault are logged with the route.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
		return
	case errors.Is(err, services.ErrStorageNotConfigured):
		apierrors.ServiceUnavailable(c, "File storage is not configured")
		return
	case errors.Is(err, services.ErrAINoTasksGenerated), errors.Is(err, services.ErrAINoValidTasks):
		apierrors.InternalError(c, err.Error())
		return
	}

	switch apierrors.KindOf(err) {
	case "", apierrors.KindStoreUnavailable:
		log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
	}
	apierrors.Respond(c, err)
}

// currentActor fetches the actor set by RequireAuth, answering 401 when absent.
func currentActor(c *gin.Context) (authz.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return actor, ok
}
