package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/solver-marketplace-api/internal/authz"
	"github.com/yukikurage/solver-marketplace-api/internal/constants"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/lifecycle"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	settlement  *SettlementService
	drafter     TaskDrafter
	log         *zap.Logger
}

// NewTaskService creates a new TaskService. drafter may be nil.
func NewTaskService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	settlement *SettlementService,
	drafter TaskDrafter,
	log *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		settlement:  settlement,
		drafter:     drafter,
		log:         log,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	ProjectID   string
	SolverID    string
	SolverEmail string
	Status      *models.TaskStatus
	Page        int
	PageSize    int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Deadline    *time.Time
}

// UpdateTaskInput represents input for editing task details
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Deadline      *time.Time
	ClearDeadline bool
}

// ListTasks returns tasks matching the filters, newest first
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.List(ctx, repository.TaskFilter{
		ProjectID:   input.ProjectID,
		SolverID:    input.SolverID,
		SolverEmail: input.SolverEmail,
		Status:      input.Status,
		Page:        input.Page,
		PageSize:    input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task by id
func (s *TaskService) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	return s.taskRepo.FindByID(ctx, taskID)
}

// CreateTask creates a TODO task bound to the project's assigned solver
func (s *TaskService) CreateTask(ctx context.Context, actor authz.Actor, projectID string, input CreateTaskInput) (*models.Task, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actor, authz.ActionCreateTask, authz.Resource{Project: project}); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apierrors.Validation("title is required")
	}

	task := &models.Task{
		ProjectID:    project.ID,
		ProjectTitle: project.Title,
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		Deadline:     input.Deadline,
		Status:       models.TaskStatusTodo,
		SolverID:     *project.AssignedSolverID,
	}
	if project.AssignedSolverEmail != nil {
		task.SolverEmail = *project.AssignedSolverEmail
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.log.Info("Task created",
		zap.String("project_id", project.ID),
		zap.String("task_id", task.ID),
		zap.String("actor_id", actor.ID),
	)
	return task, nil
}

// StartTask moves a TODO task to IN_PROGRESS
func (s *TaskService) StartTask(ctx context.Context, actor authz.Actor, taskID string) (*models.Task, error) {
	return s.move(ctx, actor, taskID, authz.ActionStartTask, models.TaskStatusInProgress, nil)
}

// SubmitTask records a deliverable URL. Prior feedback is kept.
func (s *TaskService) SubmitTask(ctx context.Context, actor authz.Actor, taskID, fileURL string) (*models.Task, error) {
	fileURL = strings.TrimSpace(fileURL)
	if fileURL == "" {
		return nil, apierrors.Validation("submission url is required")
	}

	return s.move(ctx, actor, taskID, authz.ActionSubmitTask, models.TaskStatusSubmitted, map[string]any{
		"submission_url": fileURL,
		"submitted_at":   time.Now(),
	})
}

// ReviewTask accepts or rejects a SUBMITTED task. Acceptance hands the task
// to settlement.
func (s *TaskService) ReviewTask(ctx context.Context, actor authz.Actor, taskID string, action ReviewAction, feedback string) (*models.Task, error) {
	if _, err := ParseReviewAction(string(action)); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.FindByID(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actor, authz.ActionReviewTask, authz.Resource{Task: task, Project: project}); err != nil {
		return nil, err
	}

	to := models.TaskStatusRejected
	if action == ActionAccept {
		to = models.TaskStatusCompleted
	}

	ok, err := s.taskRepo.TransitionStatus(ctx, task.ID,
		lifecycle.TaskMachine.SourcesOf(to), to,
		map[string]any{
			"feedback":    strings.TrimSpace(feedback),
			"reviewed_at": time.Now(),
		})
	if err != nil {
		return nil, fmt.Errorf("failed to review task: %w", err)
	}
	if !ok {
		return nil, apierrors.New(apierrors.KindWrongStatus, "task is not submitted")
	}

	s.log.Info("Task reviewed",
		zap.String("project_id", project.ID),
		zap.String("task_id", task.ID),
		zap.String("actor_id", actor.ID),
		zap.String("status", string(to)),
	)

	if action == ActionAccept {
		if _, err := s.settlement.Settle(ctx, task); err != nil {
			return nil, err
		}
	}

	return s.taskRepo.FindByID(ctx, task.ID)
}

// UpdateTaskDetails lets the solver edit title, description and deadline
func (s *TaskService) UpdateTaskDetails(ctx context.Context, actor authz.Actor, taskID string, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actor, authz.ActionEditTask, authz.Resource{Task: task}); err != nil {
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
		fields["description"] = strings.TrimSpace(*input.Description)
	}
	if input.ClearDeadline {
		fields["deadline"] = nil
	} else if input.Deadline != nil {
		fields["deadline"] = *input.Deadline
	}

	if len(fields) == 0 {
		return task, nil
	}

	editable := []models.TaskStatus{
		models.TaskStatusTodo,
		models.TaskStatusInProgress,
		models.TaskStatusSubmitted,
		models.TaskStatusRejected,
	}
	ok, err := s.taskRepo.UpdateFields(ctx, task.ID, editable, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if !ok {
		return nil, apierrors.New(apierrors.KindWrongStatus, "task is completed")
	}

	return s.taskRepo.FindByID(ctx, task.ID)
}

// DraftTasks asks the AI drafter for a task breakdown. Nothing is persisted;
// the solver creates the tasks it keeps.
func (s *TaskService) DraftTasks(ctx context.Context, actor authz.Actor, projectID, text string) ([]DraftedTask, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actor, authz.ActionCreateTask, authz.Resource{Project: project}); err != nil {
		return nil, err
	}

	if s.drafter == nil {
		return nil, ErrAIServiceNotConfigured
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierrors.Validation("text is required")
	}

	drafts, err := s.drafter.DraftTasks(ctx, ProjectBrief{
		Title:       project.Title,
		Description: project.Description,
		Deadline:    project.Deadline,
	}, text)
	if err != nil {
		return nil, fmt.Errorf("failed to draft tasks: %w", err)
	}

	if len(drafts) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(drafts) > constants.MaxAIGeneratedTasks {
		drafts = drafts[:constants.MaxAIGeneratedTasks]
	}

	valid := make([]DraftedTask, 0, len(drafts))
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, draft := range drafts {
		draft.Title = strings.TrimSpace(draft.Title)
		if draft.Title == "" {
			continue
		}

		if draft.Deadline != nil && draft.Deadline.Before(cutoff) {
			draft.Deadline = nil
		}
		if draft.Deadline != nil && project.Deadline != nil && draft.Deadline.After(*project.Deadline) {
			deadline := *project.Deadline
			draft.Deadline = &deadline
		}

		valid = append(valid, draft)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}

	return valid, nil
}

func (s *TaskService) move(ctx context.Context, actor authz.Actor, taskID string, action authz.Action, to models.TaskStatus, fields map[string]any) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actor, action, authz.Resource{Task: task}); err != nil {
		return nil, err
	}

	ok, err := s.taskRepo.TransitionStatus(ctx, task.ID, lifecycle.TaskMachine.SourcesOf(to), to, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}
	if !ok {
		return nil, apierrors.Newf(apierrors.KindWrongStatus, "task status changed concurrently, now %s", s.currentStatus(ctx, task.ID))
	}

	s.log.Info("Task status changed",
		zap.String("project_id", task.ProjectID),
		zap.String("task_id", task.ID),
		zap.String("actor_id", actor.ID),
		zap.String("from", string(task.Status)),
		zap.String("to", string(to)),
	)

	return s.taskRepo.FindByID(ctx, task.ID)
}

func (s *TaskService) currentStatus(ctx context.Context, taskID string) models.TaskStatus {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return "unknown"
	}
	return task.Status
}
