package services

import (
	"context"

	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/lifecycle"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/repository"
	"go.uber.org/zap"
)

// SettlementService pays a project's full budget to its assigned solver once,
// on the first accepted task, and closes the project.
//
// The completion write happens before the credit and the credit only runs
// when that write matched. A failure between the two leaves the project
// COMPLETED without a payout row; it is never paid twice.
type SettlementService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	payoutRepo  repository.PayoutRepository
	projects    *ProjectService
	locks       *lifecycle.KeyedMutex
	log         *zap.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	payoutRepo repository.PayoutRepository,
	projects *ProjectService,
	locks *lifecycle.KeyedMutex,
	log *zap.Logger,
) *SettlementService {
	return &SettlementService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		payoutRepo:  payoutRepo,
		projects:    projects,
		locks:       locks,
		log:         log,
	}
}

// Settle runs after task is accepted. It returns the payout written, or nil
// when there was nothing to pay.
func (s *SettlementService) Settle(ctx context.Context, task *models.Task) (*models.Payout, error) {
	project, unlock, err := lockAndReload(ctx, s.locks, s.projectRepo, task.ProjectID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	logger := s.log.With(
		zap.String("project_id", project.ID),
		zap.String("task_id", task.ID),
	)

	if project.Status == models.ProjectStatusCompleted {
		logger.Info("Project already settled")
		return nil, nil
	}

	amount := project.Budget
	if !amount.IsPositive() {
		// Nothing to pay, and the project stays ASSIGNED.
		logger.Info("Project budget is zero, skipping settlement")
		return nil, nil
	}

	if project.AssignedSolverID == nil {
		return nil, apierrors.New(apierrors.KindWrongStatus, "project is not assigned")
	}
	solverID := *project.AssignedSolverID

	completed, err := s.projects.complete(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	if !completed {
		logger.Info("Project completed concurrently, skipping settlement")
		return nil, nil
	}

	if err := s.userRepo.CreditBalance(ctx, solverID, amount); err != nil {
		logger.Error("Project completed but solver was not credited, payout needs reconciliation",
			zap.String("solver_id", solverID),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
		switch apierrors.KindOf(err) {
		case apierrors.KindStoreUnavailable:
			return nil, err
		case apierrors.KindNotFound:
			// Retrying cannot pay a solver with no user record.
			return nil, apierrors.Wrap(apierrors.KindNotFound, "assigned solver not found, project completed without payout", err)
		}
		return nil, apierrors.StoreUnavailable("credit solver balance", err)
	}

	payout := &models.Payout{
		ProjectID: project.ID,
		TaskID:    task.ID,
		SolverID:  solverID,
		Amount:    amount,
	}
	if err := s.payoutRepo.Create(ctx, payout); err != nil {
		// The credit already landed; only the audit row is missing.
		logger.Error("Failed to record payout",
			zap.String("solver_id", solverID),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
		return nil, nil
	}

	logger.Info("Project settled",
		zap.String("solver_id", solverID),
		zap.String("amount", amount.String()),
	)
	return payout, nil
}
