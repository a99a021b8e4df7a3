package repository

import (
	"context"

	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"gorm.io/gorm"
)

const seedBatchSize = 100

// GormMaintenanceRepository is a GORM implementation of MaintenanceRepository
type GormMaintenanceRepository struct {
	db *gorm.DB
}

// NewMaintenanceRepository creates a new MaintenanceRepository
func NewMaintenanceRepository(db *gorm.DB) MaintenanceRepository {
	return &GormMaintenanceRepository{db: db}
}

// Count returns row counts for every table
func (r *GormMaintenanceRepository) Count(ctx context.Context) (Counts, error) {
	var counts Counts
	targets := []struct {
		model any
		dest  *int64
	}{
		{&models.Project{}, &counts.Projects},
		{&models.Task{}, &counts.Tasks},
		{&models.User{}, &counts.Users},
		{&models.Request{}, &counts.Requests},
		{&models.Payout{}, &counts.Payouts},
	}

	db := r.db.WithContext(ctx)
	for _, t := range targets {
		if err := db.Model(t.model).Count(t.dest).Error; err != nil {
			return Counts{}, storeError("stats", "count rows", err)
		}
	}
	return counts, nil
}

// WipeLifecycleData hard-deletes everything except users
func (r *GormMaintenanceRepository) WipeLifecycleData(ctx context.Context) error {
	db := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Payout{}, &models.Task{}, &models.Request{}, &models.Project{}} {
		if err := db.Delete(model).Error; err != nil {
			return storeError("data", "wipe data", err)
		}
	}
	return nil
}

// InsertProjects bulk-inserts projects
func (r *GormMaintenanceRepository) InsertProjects(ctx context.Context, projects []models.Project) error {
	if len(projects) == 0 {
		return nil
	}
	return storeError("project", "seed projects", r.db.WithContext(ctx).CreateInBatches(&projects, seedBatchSize).Error)
}

// InsertTasks bulk-inserts tasks
func (r *GormMaintenanceRepository) InsertTasks(ctx context.Context, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return storeError("task", "seed tasks", r.db.WithContext(ctx).CreateInBatches(&tasks, seedBatchSize).Error)
}
