package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/solver-marketplace-api/internal/dto"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/services"
	"go.uber.org/zap"
)

type RequestHandler struct {
	requests *services.RequestService
	log      *zap.Logger
}

func NewRequestHandler(requests *services.RequestService, log *zap.Logger) *RequestHandler {
	return &RequestHandler{
		requests: requests,
		log:      log,
	}
}

// ListRequests returns the project's requests, newest first
func (h *RequestHandler) ListRequests(c *gin.Context) {
	requests, err := h.requests.ListRequests(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": dto.ToRequestDTOs(requests),
	})
}

// SubmitRequest lets a solver bid for an OPEN project. The body is optional.
func (h *RequestHandler) SubmitRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.SubmitRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	request, err := h.requests.SubmitRequest(c.Request.Context(), actor, c.Param("id"), req.Message)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToRequestDTO(*request))
}

// ResolveRequest accepts or rejects a PENDING request
func (h *RequestHandler) ResolveRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.ResolveRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	action, err := services.ParseReviewAction(req.Action)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	request, err := h.requests.ResolveRequest(c.Request.Context(), actor, c.Param("id"), c.Param("rid"), action)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRequestDTO(*request))
}
