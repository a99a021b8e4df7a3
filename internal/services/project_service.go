package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/solver-marketplace-api/internal/authz"
	"github.com/yukikurage/solver-marketplace-api/internal/constants"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/lifecycle"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/repository"
	"go.uber.org/zap"
)

// ProjectService drives project status and the buyer-facing edits.
// Status only moves through assign and complete, which are reachable from
// request acceptance and settlement respectively.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	log         *zap.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository, log *zap.Logger) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		log:         log,
	}
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Title       string
	Description string
	Budget      decimal.Decimal
	Category    string
	Deadline    *time.Time
	// BuyerID lets an admin create on behalf of a buyer. Empty means the actor.
	BuyerID string
}

// UpdateProjectInput represents a partial project edit
type UpdateProjectInput struct {
	Title         *string
	Description   *string
	Budget        *decimal.Decimal
	Category      *string
	Deadline      *time.Time
	ClearDeadline bool
}

// ListProjectsInput represents filters for listing projects
type ListProjectsInput struct {
	Status   *models.ProjectStatus
	BuyerID  string
	SolverID string
	Page     int
	PageSize int
}

// CreateProject validates input and stores a new OPEN project
func (s *ProjectService) CreateProject(ctx context.Context, actor authz.Actor, input CreateProjectInput) (*models.Project, error) {
	if err := authz.Authorize(actor, authz.ActionCreateProject, authz.Resource{BuyerID: input.BuyerID}); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		return nil, apierrors.Validation("title is required")
	}
	if description == "" {
		return nil, apierrors.Validation("description is required")
	}
	if input.Budget.IsNegative() {
		return nil, apierrors.Validation("budget must not be negative")
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = constants.DefaultProjectCategory
	}

	buyerID, buyerEmail := actor.ID, actor.Email
	if input.BuyerID != "" && input.BuyerID != actor.ID {
		buyer, err := s.userRepo.FindByID(ctx, input.BuyerID)
		if err != nil {
			return nil, err
		}
		buyerID, buyerEmail = buyer.ID, buyer.Email
	}

	project := &models.Project{
		Title:       title,
		Description: description,
		Budget:      input.Budget,
		Category:    category,
		Deadline:    input.Deadline,
		Status:      models.ProjectStatusOpen,
		BuyerID:     buyerID,
		BuyerEmail:  buyerEmail,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.log.Info("Project created",
		zap.String("project_id", project.ID),
		zap.String("buyer_id", buyerID),
		zap.String("actor_id", actor.ID),
	)
	return project, nil
}

// GetProject returns a project by id
func (s *ProjectService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return s.projectRepo.FindByID(ctx, id)
}

// ListProjects returns projects newest first
func (s *ProjectService) ListProjects(ctx context.Context, input ListProjectsInput) ([]models.Project, int64, error) {
	projects, total, err := s.projectRepo.List(ctx, repository.ProjectFilter{
		Status:   input.Status,
		BuyerID:  input.BuyerID,
		SolverID: input.SolverID,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// UpdateProject edits project details. Status is never touched here.
func (s *ProjectService) UpdateProject(ctx context.Context, actor authz.Actor, id string, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actor, authz.ActionEditProject, authz.Resource{Project: project}); err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apierrors.Validation("title cannot be empty")
		}
		fields["title"] = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apierrors.Validation("description cannot be empty")
		}
		fields["description"] = description
	}
	if input.Budget != nil {
		if input.Budget.IsNegative() {
			return nil, apierrors.Validation("budget must not be negative")
		}
		fields["budget"] = *input.Budget
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			category = constants.DefaultProjectCategory
		}
		fields["category"] = category
	}
	if input.ClearDeadline {
		fields["deadline"] = nil
	} else if input.Deadline != nil {
		fields["deadline"] = *input.Deadline
	}

	if len(fields) == 0 {
		return project, nil
	}

	editable := []models.ProjectStatus{models.ProjectStatusOpen, models.ProjectStatusAssigned}
	ok, err := s.projectRepo.UpdateFields(ctx, project.ID, editable, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	if !ok {
		return nil, apierrors.New(apierrors.KindWrongStatus, "project is completed")
	}

	return s.projectRepo.FindByID(ctx, project.ID)
}

// assign moves an OPEN project to ASSIGNED. It reports false when the project
// was no longer OPEN at write time.
func (s *ProjectService) assign(ctx context.Context, projectID, solverID, solverEmail string) (bool, error) {
	ok, err := s.projectRepo.TransitionStatus(ctx, projectID,
		lifecycle.ProjectMachine.SourcesOf(models.ProjectStatusAssigned),
		models.ProjectStatusAssigned,
		map[string]any{
			"assigned_solver_id":    solverID,
			"assigned_solver_email": solverEmail,
		})
	if err != nil {
		return false, fmt.Errorf("failed to assign project: %w", err)
	}
	if ok {
		s.log.Info("Project assigned",
			zap.String("project_id", projectID),
			zap.String("solver_id", solverID),
		)
	}
	return ok, nil
}

// complete moves an ASSIGNED project to COMPLETED. False means another caller
// completed it first, or it was never assigned.
func (s *ProjectService) complete(ctx context.Context, projectID string) (bool, error) {
	ok, err := s.projectRepo.TransitionStatus(ctx, projectID,
		lifecycle.ProjectMachine.SourcesOf(models.ProjectStatusCompleted),
		models.ProjectStatusCompleted,
		map[string]any{"completed_at": time.Now()})
	if err != nil {
		return false, fmt.Errorf("failed to complete project: %w", err)
	}
	if ok {
		s.log.Info("Project completed", zap.String("project_id", projectID))
	}
	return ok, nil
}
