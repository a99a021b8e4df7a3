package repository

import (
	"context"

	"github.com/yukikurage/solver-marketplace-api/internal/database"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/utils"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return storeError("task", "create task", r.db.WithContext(ctx).Create(task).Error)
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Where("id IN ?", IDCandidates(id)).First(&task).Error; err != nil {
		return nil, storeError("task", "find task", err)
	}
	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{})

	// Apply filters
	if filter.ProjectID != "" {
		query = query.Where("project_id IN ?", IDCandidates(filter.ProjectID))
	}
	if filter.SolverID != "" {
		query = query.Where("solver_id = ?", filter.SolverID)
	}
	if filter.SolverEmail != "" {
		query = query.Where("solver_email = ?", filter.SolverEmail)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeError("task", "count tasks", err)
	}

	listQuery := query.Scopes(database.NewestFirst)
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	var tasks []models.Task
	if err := listQuery.Find(&tasks).Error; err != nil {
		return nil, 0, storeError("task", "list tasks", err)
	}

	return tasks, total, nil
}

// TransitionStatus performs a conditional status update
func (r *GormTaskRepository) TransitionStatus(ctx context.Context, id string, from []models.TaskStatus, to models.TaskStatus, fields map[string]any) (bool, error) {
	patch := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		patch[k] = v
	}
	patch["status"] = to

	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id IN ? AND status IN ?", IDCandidates(id), from).
		Updates(patch)
	if result.Error != nil {
		return false, storeError("task", "update task status", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpdateFields patches the task while its status is one of `in`
func (r *GormTaskRepository) UpdateFields(ctx context.Context, id string, in []models.TaskStatus, fields map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id IN ? AND status IN ?", IDCandidates(id), in).
		Updates(fields)
	if result.Error != nil {
		return false, storeError("task", "update task", result.Error)
	}
	return result.RowsAffected > 0, nil
}
