package repository

import (
	"context"

	"github.com/yukikurage/solver-marketplace-api/internal/database"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/utils"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return storeError("project", "create project", r.db.WithContext(ctx).Create(project).Error)
}

// FindByID finds a project by ID, tolerating both id representations
func (r *GormProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Where("id IN ?", IDCandidates(id)).First(&project).Error; err != nil {
		return nil, storeError("project", "find project", err)
	}
	return &project, nil
}

// List retrieves projects with filtering and pagination
func (r *GormProjectRepository) List(ctx context.Context, filter ProjectFilter) ([]models.Project, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Project{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.BuyerID != "" {
		query = query.Where("buyer_id = ?", filter.BuyerID)
	}
	if filter.SolverID != "" {
		query = query.Where("assigned_solver_id = ?", filter.SolverID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeError("project", "count projects", err)
	}

	listQuery := query.Scopes(database.NewestFirst)
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	var projects []models.Project
	if err := listQuery.Find(&projects).Error; err != nil {
		return nil, 0, storeError("project", "list projects", err)
	}

	return projects, total, nil
}

// TransitionStatus performs a conditional status update
func (r *GormProjectRepository) TransitionStatus(ctx context.Context, id string, from []models.ProjectStatus, to models.ProjectStatus, fields map[string]any) (bool, error) {
	patch := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		patch[k] = v
	}
	patch["status"] = to

	result := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id IN ? AND status IN ?", IDCandidates(id), from).
		Updates(patch)
	if result.Error != nil {
		return false, storeError("project", "update project status", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpdateFields patches the project while its status is one of `in`
func (r *GormProjectRepository) UpdateFields(ctx context.Context, id string, in []models.ProjectStatus, fields map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id IN ? AND status IN ?", IDCandidates(id), in).
		Updates(fields)
	if result.Error != nil {
		return false, storeError("project", "update project", result.Error)
	}
	return result.RowsAffected > 0, nil
}
