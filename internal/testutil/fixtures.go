package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/solver-marketplace-api/internal/authz"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"gorm.io/gorm"
)

// CreateUser inserts a user with the given role and returns it as an actor.
func CreateUser(t *testing.T, db *gorm.DB, id string, role models.Role) authz.Actor {
	t.Helper()

	user := &models.User{
		ID:      id,
		Email:   id + "@example.com",
		Name:    id,
		Role:    role,
		Balance: decimal.Zero,
	}
	require.NoError(t, db.Create(user).Error)

	return authz.Actor{ID: user.ID, Email: user.Email, Name: user.Name, Role: role}
}

// CreateProject inserts an OPEN project owned by buyer.
func CreateProject(t *testing.T, db *gorm.DB, buyer authz.Actor, budget int64) *models.Project {
	t.Helper()

	project := &models.Project{
		Title:       "Landing page",
		Description: "Build a landing page",
		Budget:      decimal.NewFromInt(budget),
		Category:    "Web",
		Status:      models.ProjectStatusOpen,
		BuyerID:     buyer.ID,
		BuyerEmail:  buyer.Email,
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

// CreateAssignedProject inserts a project already assigned to solver.
func CreateAssignedProject(t *testing.T, db *gorm.DB, buyer, solver authz.Actor, budget int64) *models.Project {
	t.Helper()

	project := CreateProject(t, db, buyer, budget)
	require.NoError(t, db.Model(project).Updates(map[string]any{
		"status":                models.ProjectStatusAssigned,
		"assigned_solver_id":    solver.ID,
		"assigned_solver_email": solver.Email,
	}).Error)

	require.NoError(t, db.First(project, "id = ?", project.ID).Error)
	return project
}

// CreateTask inserts a task on project for solver with the given status.
func CreateTask(t *testing.T, db *gorm.DB, project *models.Project, solver authz.Actor, status models.TaskStatus) *models.Task {
	t.Helper()

	task := &models.Task{
		ProjectID:    project.ID,
		ProjectTitle: project.Title,
		Title:        "Build page",
		Status:       status,
		SolverID:     solver.ID,
		SolverEmail:  solver.Email,
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

// Balance reloads a user's balance.
func Balance(t *testing.T, db *gorm.DB, userID string) decimal.Decimal {
	t.Helper()

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", userID).Error)
	return user.Balance
}
