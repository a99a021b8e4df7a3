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

type TaskHandler struct {
	tasks *services.TaskService
	log   *zap.Logger
}

func NewTaskHandler(tasks *services.TaskService, log *zap.Logger) *TaskHandler {
	return &TaskHandler{
		tasks: tasks,
		log:   log,
	}
}

// ListTasks returns tasks newest first.
// Filters: project_id, solver_id, solver_email, status
func (h *TaskHandler) ListTasks(c *gin.Context) {
	h.listTasks(c, c.Query("project_id"))
}

// ListProjectTasks lists the tasks of the project in the path
func (h *TaskHandler) ListProjectTasks(c *gin.Context) {
	h.listTasks(c, c.Param("id"))
}

func (h *TaskHandler) listTasks(c *gin.Context, projectID string) {
	params := utils.GetPaginationParams(c)
	input := services.ListTasksInput{
		ProjectID:   projectID,
		SolverID:    c.Query("solver_id"),
		SolverEmail: strings.ToLower(c.Query("solver_email")),
		Page:        params.Page,
		PageSize:    params.Limit,
	}

	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(strings.ToUpper(raw))
		if !lifecycle.TaskMachine.Knows(status) {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		input.Status = &status
	}

	tasks, total, err := h.tasks.ListTasks(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.tasks.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask adds a TODO task to an assigned project
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), actor, c.Param("id"), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// DraftTasks asks the AI service for a task breakdown of the project.
// Nothing is saved.
func (h *TaskHandler) DraftTasks(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.DraftTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	drafts, err := h.tasks.DraftTasks(c.Request.Context(), actor, c.Param("id"), req.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.DraftedTasksResponse{
		Tasks: drafts,
		Count: len(drafts),
	})
}

// UpdateTask edits title, description or deadline
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.tasks.UpdateTaskDetails(c.Request.Context(), actor, c.Param("id"), services.UpdateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		Deadline:      req.Deadline,
		ClearDeadline: req.ClearDeadline,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

func (h *TaskHandler) StartTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	task, err := h.tasks.StartTask(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// SubmitTask submits an already uploaded deliverable URL
func (h *TaskHandler) SubmitTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.SubmitTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.tasks.SubmitTask(c.Request.Context(), actor, c.Param("id"), req.FileURL)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// ReviewTask accepts or rejects a SUBMITTED task. Accepting may settle the
// project.
func (h *TaskHandler) ReviewTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.ReviewTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	action, err := services.ParseReviewAction(req.Action)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	task, err := h.tasks.ReviewTask(c.Request.Context(), actor, c.Param("id"), action, req.Feedback)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}
