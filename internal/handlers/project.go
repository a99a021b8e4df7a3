package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/solver-marketplace-api/internal/dto"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/lifecycle"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/services"
	"github.com/yukikurage/solver-marketplace-api/internal/utils"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	projects *services.ProjectService
	log      *zap.Logger
}

func NewProjectHandler(projects *services.ProjectService, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		log:      log,
	}
}

// ListProjects returns projects newest first.
// Filters: status, buyer_id, solver_id
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	input := services.ListProjectsInput{
		BuyerID:  c.Query("buyer_id"),
		SolverID: c.Query("solver_id"),
		Page:     params.Page,
		PageSize: params.Limit,
	}

	if raw := c.Query("status"); raw != "" {
		status := models.ProjectStatus(strings.ToUpper(raw))
		if !lifecycle.ProjectMachine.Knows(status) {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		input.Status = &status
	}

	projects, total, err := h.projects.ListProjects(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectListResponse(projects, params, total))
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projects.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// CreateProject creates a new OPEN project
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projects.CreateProject(c.Request.Context(), actor, services.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Category:    req.Category,
		Deadline:    req.Deadline,
		BuyerID:     req.BuyerID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// UpdateProject edits project details; status never changes here
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projects.UpdateProject(c.Request.Context(), actor, c.Param("id"), services.UpdateProjectInput{
		Title:         req.Title,
		Description:   req.Description,
		Budget:        req.Budget,
		Category:      req.Category,
		Deadline:      req.Deadline,
		ClearDeadline: req.ClearDeadline,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}
