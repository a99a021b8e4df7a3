package dto

import (
	"time"

	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/services"
)

// PayoutDTO represents a settlement credit in API responses
type PayoutDTO struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	TaskID    string    `json:"task_id"`
	SolverID  string    `json:"solver_id"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadResponse is returned by POST /upload
type UploadResponse struct {
	URL  string   `json:"url"`
	Key  string   `json:"key"`
	Size int64    `json:"size"`
	Task *TaskDTO `json:"task,omitempty"`
}

// ToPayoutDTOs converts a slice of payouts
func ToPayoutDTOs(payouts []models.Payout) []PayoutDTO {
	items := make([]PayoutDTO, len(payouts))
	for i, payout := range payouts {
		items[i] = PayoutDTO{
			ID:        payout.ID,
			ProjectID: payout.ProjectID,
			TaskID:    payout.TaskID,
			SolverID:  payout.SolverID,
			Amount:    payout.Amount.StringFixed(2),
			CreatedAt: payout.CreatedAt,
		}
	}
	return items
}

// ToUploadResponse converts an upload result
func ToUploadResponse(result *services.UploadResult) UploadResponse {
	resp := UploadResponse{
		URL:  result.Object.URL,
		Key:  result.Object.Key,
		Size: result.Object.Size,
	}
	if result.Task != nil {
		task := ToTaskDTO(*result.Task)
		resp.Task = &task
	}
	return resp
}
