package dto

import (
	"time"

	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/services"
	"github.com/yukikurage/solver-marketplace-api/internal/utils"
)

// CreateTaskRequest is the body of POST /projects/:id/tasks
type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
}

// UpdateTaskRequest is the body of PUT /tasks/:id
type UpdateTaskRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Deadline      *time.Time `json:"deadline"`
	ClearDeadline bool       `json:"clear_deadline"`
}

// SubmitTaskRequest is the body of POST /tasks/:id/submit
type SubmitTaskRequest struct {
	FileURL string `json:"file_url" binding:"required"`
}

// ReviewTaskRequest is the body of PUT /tasks/:id/review
type ReviewTaskRequest struct {
	Action   string `json:"action" binding:"required"`
	Feedback string `json:"feedback"`
}

// DraftTasksRequest is the body of POST /projects/:id/tasks/draft
type DraftTasksRequest struct {
	Text string `json:"text" binding:"required"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID            string            `json:"id"`
	ProjectID     string            `json:"project_id"`
	ProjectTitle  string            `json:"project_title"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Deadline      *time.Time        `json:"deadline"`
	Status        models.TaskStatus `json:"status"`
	SolverID      string            `json:"solver_id"`
	SolverEmail   string            `json:"solver_email"`
	SubmissionURL *string           `json:"submission_url"`
	SubmittedAt   *time.Time        `json:"submitted_at"`
	Feedback      *string           `json:"feedback"`
	ReviewedAt    *time.Time        `json:"reviewed_at"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// DraftedTasksResponse carries AI drafted tasks; nothing is persisted
type DraftedTasksResponse struct {
	Tasks []services.DraftedTask `json:"tasks"`
	Count int                    `json:"count"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:            task.ID,
		ProjectID:     task.ProjectID,
		ProjectTitle:  task.ProjectTitle,
		Title:         task.Title,
		Description:   task.Description,
		Deadline:      task.Deadline,
		Status:        task.Status,
		SolverID:      task.SolverID,
		SolverEmail:   task.SolverEmail,
		SubmissionURL: task.SubmissionURL,
		SubmittedAt:   task.SubmittedAt,
		Feedback:      task.Feedback,
		ReviewedAt:    task.ReviewedAt,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}
}

// ToTaskListResponse converts a page of tasks
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks: items,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	}
}
