package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yukikurage/solver-marketplace-api/internal/authz"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/lifecycle"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/repository"
	"go.uber.org/zap"
)

// RequestService arbitrates solver requests so each project ends up with at
// most one accepted request.
//
// Submission and resolution take the per-project lock, so within one process
// they never interleave. Every write is still conditional on the status read
// under that lock, which keeps separate processes from double-assigning.
type RequestService struct {
	requestRepo repository.RequestRepository
	projectRepo repository.ProjectRepository
	projects    *ProjectService
	locks       *lifecycle.KeyedMutex
	log         *zap.Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(
	requestRepo repository.RequestRepository,
	projectRepo repository.ProjectRepository,
	projects *ProjectService,
	locks *lifecycle.KeyedMutex,
	log *zap.Logger,
) *RequestService {
	return &RequestService{
		requestRepo: requestRepo,
		projectRepo: projectRepo,
		projects:    projects,
		locks:       locks,
		log:         log,
	}
}

// SubmitRequest records a PENDING request from a solver for an OPEN project
func (s *RequestService) SubmitRequest(ctx context.Context, actor authz.Actor, projectID, message string) (*models.Request, error) {
	project, unlock, err := s.lockProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	active, err := s.requestRepo.HasActive(ctx, project.ID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing requests: %w", err)
	}

	res := authz.Resource{Project: project, HasActiveRequest: active}
	if err := authz.Authorize(actor, authz.ActionSubmitRequest, res); err != nil {
		return nil, err
	}

	request := &models.Request{
		ProjectID:   project.ID,
		SolverID:    actor.ID,
		SolverEmail: actor.Email,
		SolverName:  actor.Name,
		Message:     strings.TrimSpace(message),
		Status:      models.RequestStatusPending,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.log.Info("Request submitted",
		zap.String("project_id", project.ID),
		zap.String("request_id", request.ID),
		zap.String("actor_id", actor.ID),
	)
	return request, nil
}

// ListRequests returns a project's requests, newest first
func (s *RequestService) ListRequests(ctx context.Context, projectID string) ([]models.Request, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.requestRepo.ListByProject(ctx, project.ID)
}

// ResolveRequest accepts or rejects a PENDING request.
//
// ACCEPT marks the request ACCEPTED, assigns the project to its solver, then
// rejects every other request on the project. If the assignment loses a race
// the acceptance is rolled back to REJECTED and WrongStatus is returned.
// Accepting the already accepted request again only re-runs the sibling
// rejection.
func (s *RequestService) ResolveRequest(ctx context.Context, actor authz.Actor, projectID, requestID string, action ReviewAction) (*models.Request, error) {
	if _, err := ParseReviewAction(string(action)); err != nil {
		return nil, err
	}

	project, unlock, err := s.lockProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ProjectID != project.ID {
		return nil, apierrors.NotFoundError("request")
	}

	logger := s.log.With(
		zap.String("project_id", project.ID),
		zap.String("request_id", request.ID),
		zap.String("actor_id", actor.ID),
	)

	// A repeated ACCEPT of the winning request finishes an acceptance whose
	// sibling rejection failed.
	if action == ActionAccept && request.Status == models.RequestStatusAccepted && project.IsAssignedTo(request.SolverID) {
		if !authz.OwnsProject(actor, project) {
			return nil, apierrors.New(apierrors.KindNotOwner, "only the project's buyer or an admin can resolve requests")
		}
		return s.rejectSiblings(ctx, logger, project.ID, request)
	}

	if err := authz.Authorize(actor, authz.ActionResolveRequest, authz.Resource{Project: project}); err != nil {
		return nil, err
	}
	if request.Status != models.RequestStatusPending {
		return nil, apierrors.New(apierrors.KindWrongStatus, "request is not pending")
	}

	if action == ActionReject {
		if err := s.transition(ctx, request.ID, models.RequestStatusPending, models.RequestStatusRejected); err != nil {
			return nil, err
		}
		logger.Info("Request rejected")
		return s.requestRepo.FindByID(ctx, request.ID)
	}

	if err := s.transition(ctx, request.ID, models.RequestStatusPending, models.RequestStatusAccepted); err != nil {
		return nil, err
	}

	assigned, err := s.projects.assign(ctx, project.ID, request.SolverID, request.SolverEmail)
	if err != nil || !assigned {
		s.undoAcceptance(ctx, logger, request.ID)
		if err != nil {
			return nil, err
		}
		return nil, apierrors.New(apierrors.KindWrongStatus, "project is not open")
	}

	return s.rejectSiblings(ctx, logger, project.ID, request)
}

// rejectSiblings rejects every other request on the project once request has
// won it. On failure the caller retries by accepting the same request again.
func (s *RequestService) rejectSiblings(ctx context.Context, logger *zap.Logger, projectID string, request *models.Request) (*models.Request, error) {
	rejected, err := s.requestRepo.RejectSiblings(ctx, projectID, request.ID)
	if err != nil {
		logger.Error("Failed to reject sibling requests", zap.Error(err))
		return nil, err
	}

	logger.Info("Request accepted",
		zap.String("solver_id", request.SolverID),
		zap.Int64("siblings_rejected", rejected),
	)
	return s.requestRepo.FindByID(ctx, request.ID)
}

func (s *RequestService) transition(ctx context.Context, requestID string, from, to models.RequestStatus) error {
	if !lifecycle.RequestMachine.CanTransition(from, to) {
		return apierrors.Newf(apierrors.KindWrongStatus, "request cannot move from %s to %s", from, to)
	}
	ok, err := s.requestRepo.TransitionStatus(ctx, requestID, []models.RequestStatus{from}, to)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	if !ok {
		return apierrors.New(apierrors.KindWrongStatus, "request is not pending")
	}
	return nil
}

func (s *RequestService) undoAcceptance(ctx context.Context, logger *zap.Logger, requestID string) {
	if err := s.transition(ctx, requestID, models.RequestStatusAccepted, models.RequestStatusRejected); err != nil {
		logger.Error("Failed to roll back request acceptance", zap.Error(err))
		return
	}
	logger.Warn("Request acceptance rolled back, project was already assigned")
}

// lockProject resolves the project id, takes its lock and re-reads the
// project under the lock.
func (s *RequestService) lockProject(ctx context.Context, projectID string) (*models.Project, func(), error) {
	return lockAndReload(ctx, s.locks, s.projectRepo, projectID)
}

func lockAndReload(ctx context.Context, locks *lifecycle.KeyedMutex, repo repository.ProjectRepository, projectID string) (*models.Project, func(), error) {
	project, err := repo.FindByID(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}

	unlock := locks.Lock(project.ID)
	project, err = repo.FindByID(ctx, project.ID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return project, unlock, nil
}
