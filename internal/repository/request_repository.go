package repository

import (
	"context"

	"github.com/yukikurage/solver-marketplace-api/internal/database"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"gorm.io/gorm"
)

// GormRequestRepository is a GORM implementation of RequestRepository
type GormRequestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates a new RequestRepository
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &GormRequestRepository{db: db}
}

// Create creates a new request
func (r *GormRequestRepository) Create(ctx context.Context, request *models.Request) error {
	return storeError("request", "create request", r.db.WithContext(ctx).Create(request).Error)
}

// FindByID finds a request by ID
func (r *GormRequestRepository) FindByID(ctx context.Context, id string) (*models.Request, error) {
	var request models.Request
	if err := r.db.WithContext(ctx).Where("id IN ?", IDCandidates(id)).First(&request).Error; err != nil {
		return nil, storeError("request", "find request", err)
	}
	return &request, nil
}

// ListByProject lists all requests for a project
func (r *GormRequestRepository) ListByProject(ctx context.Context, projectID string) ([]models.Request, error) {
	var requests []models.Request
	if err := r.db.WithContext(ctx).
		Where("project_id IN ?", IDCandidates(projectID)).
		Scopes(database.NewestFirst).
		Find(&requests).Error; err != nil {
		return nil, storeError("request", "list requests", err)
	}
	return requests, nil
}

// HasActive reports whether a PENDING or ACCEPTED request exists for the pair
func (r *GormRequestRepository) HasActive(ctx context.Context, projectID, solverID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("project_id IN ? AND solver_id = ? AND status IN ?",
			IDCandidates(projectID), solverID,
			[]models.RequestStatus{models.RequestStatusPending, models.RequestStatusAccepted}).
		Count(&count).Error
	if err != nil {
		return false, storeError("request", "check existing requests", err)
	}
	return count > 0, nil
}

// TransitionStatus performs a conditional status update
func (r *GormRequestRepository) TransitionStatus(ctx context.Context, id string, from []models.RequestStatus, to models.RequestStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("id IN ? AND status IN ?", IDCandidates(id), from).
		Updates(map[string]any{"status": to})
	if result.Error != nil {
		return false, storeError("request", "update request status", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// RejectSiblings rejects every other request for the project
func (r *GormRequestRepository) RejectSiblings(ctx context.Context, projectID, keepID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Request{}).
		Where("project_id IN ? AND id NOT IN ?", IDCandidates(projectID), IDCandidates(keepID)).
		Updates(map[string]any{"status": models.RequestStatusRejected})
	if result.Error != nil {
		return 0, storeError("request", "reject sibling requests", result.Error)
	}
	return result.RowsAffected, nil
}
