package repository

import (
	"context"

	"github.com/yukikurage/solver-marketplace-api/internal/database"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"gorm.io/gorm"
)

// GormPayoutRepository is a GORM implementation of PayoutRepository
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository creates a new PayoutRepository
func NewPayoutRepository(db *gorm.DB) PayoutRepository {
	return &GormPayoutRepository{db: db}
}

// Create appends a payout to the ledger
func (r *GormPayoutRepository) Create(ctx context.Context, payout *models.Payout) error {
	return storeError("payout", "record payout", r.db.WithContext(ctx).Create(payout).Error)
}

// FindByProject finds the payout for a project
func (r *GormPayoutRepository) FindByProject(ctx context.Context, projectID string) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.WithContext(ctx).
		Where("project_id IN ?", IDCandidates(projectID)).
		First(&payout).Error; err != nil {
		return nil, storeError("payout", "find payout", err)
	}
	return &payout, nil
}

// List returns payouts, optionally restricted to one solver
func (r *GormPayoutRepository) List(ctx context.Context, solverID string) ([]models.Payout, error) {
	query := r.db.WithContext(ctx).Scopes(database.NewestFirst)
	if solverID != "" {
		query = query.Where("solver_id = ?", solverID)
	}

	var payouts []models.Payout
	if err := query.Find(&payouts).Error; err != nil {
		return nil, storeError("payout", "list payouts", err)
	}
	return payouts, nil
}
