package dto

import (
	"time"

	"github.com/yukikurage/solver-marketplace-api/internal/models"
)

// SubmitRequestRequest is the body of POST /projects/:id/requests
type SubmitRequestRequest struct {
	Message string `json:"message"`
}

// ResolveRequestRequest is the body of PUT /projects/:id/requests/:rid
type ResolveRequestRequest struct {
	Action string `json:"action" binding:"required"`
}

// RequestDTO represents a solver request in API responses
type RequestDTO struct {
	ID          string               `json:"id"`
	ProjectID   string               `json:"project_id"`
	SolverID    string               `json:"solver_id"`
	SolverEmail string               `json:"solver_email"`
	SolverName  string               `json:"solver_name"`
	Message     string               `json:"message"`
	Status      models.RequestStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ToRequestDTO converts a Request model to RequestDTO
func ToRequestDTO(request models.Request) RequestDTO {
	return RequestDTO{
		ID:          request.ID,
		ProjectID:   request.ProjectID,
		SolverID:    request.SolverID,
		SolverEmail: request.SolverEmail,
		SolverName:  request.SolverName,
		Message:     request.Message,
		Status:      request.Status,
		CreatedAt:   request.CreatedAt,
		UpdatedAt:   request.UpdatedAt,
	}
}

// ToRequestDTOs converts a slice of requests
func ToRequestDTOs(requests []models.Request) []RequestDTO {
	items := make([]RequestDTO, len(requests))
	for i, request := range requests {
		items[i] = ToRequestDTO(request)
	}
	return items
}
