package services

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/solver-marketplace-api/internal/authz"
	"github.com/yukikurage/solver-marketplace-api/internal/constants"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/repository"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Projects []seedProject `yaml:"projects"`
	Tasks    []seedTask    `yaml:"tasks"`
}

type seedProject struct {
	ID                  string `yaml:"id"`
	Title               string `yaml:"title"`
	Description         string `yaml:"description"`
	Budget              string `yaml:"budget"`
	Category            string `yaml:"category"`
	DeadlineDays        int    `yaml:"deadline_days"`
	BuyerID             string `yaml:"buyer_id"`
	BuyerEmail          string `yaml:"buyer_email"`
	AssignedSolverID    string `yaml:"assigned_solver_id"`
	AssignedSolverEmail string `yaml:"assigned_solver_email"`
}

type seedTask struct {
	ProjectID    string            `yaml:"project_id"`
	Title        string            `yaml:"title"`
	Description  string            `yaml:"description"`
	DeadlineDays int               `yaml:"deadline_days"`
	Status       models.TaskStatus `yaml:"status"`
	SolverID     string            `yaml:"solver_id"`
	SolverEmail  string            `yaml:"solver_email"`
}

// SeedResult reports how many rows Seed inserted.
type SeedResult struct {
	Projects int  `json:"projects"`
	Tasks    int  `json:"tasks"`
	Forced   bool `json:"forced"`
}

// MaintenanceService runs admin-only bulk operations.
type MaintenanceService struct {
	maintRepo  repository.MaintenanceRepository
	payoutRepo repository.PayoutRepository
	seed       []byte
	log        *zap.Logger
}

// NewMaintenanceService creates a new MaintenanceService using the embedded seed.
func NewMaintenanceService(maintRepo repository.MaintenanceRepository, payoutRepo repository.PayoutRepository, log *zap.Logger) *MaintenanceService {
	return &MaintenanceService{
		maintRepo:  maintRepo,
		payoutRepo: payoutRepo,
		seed:       defaultSeed,
		log:        log,
	}
}

// Stats returns row counts
func (s *MaintenanceService) Stats(ctx context.Context, actor authz.Actor) (repository.Counts, error) {
	if err := authz.Authorize(actor, authz.ActionMaintain, authz.Resource{}); err != nil {
		return repository.Counts{}, err
	}
	return s.maintRepo.Count(ctx)
}

// Wipe deletes projects, requests, tasks and payouts. Users are kept.
func (s *MaintenanceService) Wipe(ctx context.Context, actor authz.Actor) error {
	if err := authz.Authorize(actor, authz.ActionMaintain, authz.Resource{}); err != nil {
		return err
	}
	if err := s.maintRepo.WipeLifecycleData(ctx); err != nil {
		return err
	}
	s.log.Warn("Lifecycle data wiped", zap.String("actor_id", actor.ID))
	return nil
}

// Seed loads demo projects and their tasks while there are no projects;
// force wipes lifecycle data first.
func (s *MaintenanceService) Seed(ctx context.Context, actor authz.Actor, force bool) (*SeedResult, error) {
	if err := authz.Authorize(actor, authz.ActionMaintain, authz.Resource{}); err != nil {
		return nil, err
	}

	projects, tasks, err := s.parseSeed(time.Now())
	if err != nil {
		return nil, err
	}

	if force {
		if err := s.maintRepo.WipeLifecycleData(ctx); err != nil {
			return nil, err
		}
	}

	counts, err := s.maintRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	result := &SeedResult{Forced: force}
	// Seed tasks belong to seed projects, so both go in together or not at all.
	if counts.Projects == 0 {
		if err := s.maintRepo.InsertProjects(ctx, projects); err != nil {
			return nil, err
		}
		result.Projects = len(projects)

		if err := s.maintRepo.InsertTasks(ctx, tasks); err != nil {
			return nil, err
		}
		result.Tasks = len(tasks)
	}

	s.log.Info("Seed applied",
		zap.String("actor_id", actor.ID),
		zap.Bool("force", force),
		zap.Int("projects", result.Projects),
		zap.Int("tasks", result.Tasks),
	)
	return result, nil
}

// ListPayouts returns the settlement ledger, optionally for one solver
func (s *MaintenanceService) ListPayouts(ctx context.Context, actor authz.Actor, solverID string) ([]models.Payout, error) {
	if err := authz.Authorize(actor, authz.ActionMaintain, authz.Resource{}); err != nil {
		return nil, err
	}
	return s.payoutRepo.List(ctx, solverID)
}

func (s *MaintenanceService) parseSeed(now time.Time) ([]models.Project, []models.Task, error) {
	var file seedFile
	if err := yaml.Unmarshal(s.seed, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse seed data: %w", err)
	}

	titles := make(map[string]string, len(file.Projects))
	projects := make([]models.Project, 0, len(file.Projects))
	for _, p := range file.Projects {
		budget, err := decimal.NewFromString(p.Budget)
		if err != nil {
			return nil, nil, fmt.Errorf("seed project %s: invalid budget %q: %w", p.ID, p.Budget, err)
		}

		project := models.Project{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Budget:      budget,
			Category:    p.Category,
			Deadline:    daysFrom(now, p.DeadlineDays),
			Status:      models.ProjectStatusOpen,
			BuyerID:     p.BuyerID,
			BuyerEmail:  p.BuyerEmail,
		}
		if project.Category == "" {
			project.Category = constants.DefaultProjectCategory
		}
		if p.AssignedSolverID != "" {
			solverID, solverEmail := p.AssignedSolverID, p.AssignedSolverEmail
			project.Status = models.ProjectStatusAssigned
			project.AssignedSolverID = &solverID
			project.AssignedSolverEmail = &solverEmail
		}

		titles[p.ID] = p.Title
		projects = append(projects, project)
	}

	tasks := make([]models.Task, 0, len(file.Tasks))
	for _, t := range file.Tasks {
		title, ok := titles[t.ProjectID]
		if !ok {
			return nil, nil, fmt.Errorf("seed task %q references unknown project %s", t.Title, t.ProjectID)
		}
		status := t.Status
		if status == "" {
			status = models.TaskStatusTodo
		}

		tasks = append(tasks, models.Task{
			ProjectID:    t.ProjectID,
			ProjectTitle: title,
			Title:        t.Title,
			Description:  t.Description,
			Deadline:     daysFrom(now, t.DeadlineDays),
			Status:       status,
			SolverID:     t.SolverID,
			SolverEmail:  t.SolverEmail,
		})
	}

	return projects, tasks, nil
}

func daysFrom(now time.Time, days int) *time.Time {
	if days <= 0 {
		return nil
	}
	t := now.AddDate(0, 0, days)
	return &t
}
