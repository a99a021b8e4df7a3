package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/utils"
)

// CreateProjectRequest is the body of POST /projects. BuyerID is only
// honoured for admins creating on behalf of a buyer.
type CreateProjectRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description" binding:"required"`
	Budget      decimal.Decimal `json:"budget"`
	Category    string          `json:"category"`
	Deadline    *time.Time      `json:"deadline"`
	BuyerID     string          `json:"buyer_id"`
}

// UpdateProjectRequest is the body of PUT /projects/:id
type UpdateProjectRequest struct {
	Title         *string          `json:"title"`
	Description   *string          `json:"description"`
	Budget        *decimal.Decimal `json:"budget"`
	Category      *string          `json:"category"`
	Deadline      *time.Time       `json:"deadline"`
	ClearDeadline bool             `json:"clear_deadline"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID                  string               `json:"id"`
	Title               string               `json:"title"`
	Description         string               `json:"description"`
	Budget              string               `json:"budget"`
	Category            string               `json:"category"`
	Deadline            *time.Time           `json:"deadline"`
	Status              models.ProjectStatus `json:"status"`
	BuyerID             string               `json:"buyer_id"`
	BuyerEmail          string               `json:"buyer_email"`
	AssignedSolverID    *string              `json:"assigned_solver_id"`
	AssignedSolverEmail *string              `json:"assigned_solver_email"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
	CompletedAt         *time.Time           `json:"completed_at,omitempty"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects   []ProjectDTO             `json:"projects"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:                  project.ID,
		Title:               project.Title,
		Description:         project.Description,
		Budget:              project.Budget.StringFixed(2),
		Category:            project.Category,
		Deadline:            project.Deadline,
		Status:              project.Status,
		BuyerID:             project.BuyerID,
		BuyerEmail:          project.BuyerEmail,
		AssignedSolverID:    project.AssignedSolverID,
		AssignedSolverEmail: project.AssignedSolverEmail,
		CreatedAt:           project.CreatedAt,
		UpdatedAt:           project.UpdatedAt,
		CompletedAt:         project.CompletedAt,
	}
}

// ToProjectListResponse converts a page of projects
func ToProjectListResponse(projects []models.Project, params utils.PaginationParams, total int64) ProjectListResponse {
	items := make([]ProjectDTO, len(projects))
	for i, project := range projects {
		items[i] = ToProjectDTO(project)
	}

	return ProjectListResponse{
		Projects: items,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	}
}
