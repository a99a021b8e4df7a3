package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/solver-marketplace-api/internal/authz"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/lifecycle"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/repository"
	"github.com/yukikurage/solver-marketplace-api/internal/testutil"
	"go.uber.org/zap"
)

type RequestServiceTestSuite struct {
	suite.Suite
	env     *serviceEnv
	ctx     context.Context
	buyer   authz.Actor
	other   authz.Actor
	solverA authz.Actor
	solverB authz.Actor
	project *models.Project
}

func (suite *RequestServiceTestSuite) SetupTest() {
	suite.env = newServiceEnv(suite.T(), envOptions{})
	suite.ctx = context.Background()

	db := suite.env.db
	suite.buyer = testutil.CreateUser(suite.T(), db, "buyer", models.RoleBuyer)
	suite.other = testutil.CreateUser(suite.T(), db, "other-buyer", models.RoleBuyer)
	suite.solverA = testutil.CreateUser(suite.T(), db, "solver-a", models.RoleSolver)
	suite.solverB = testutil.CreateUser(suite.T(), db, "solver-b", models.RoleSolver)
	suite.project = testutil.CreateProject(suite.T(), db, suite.buyer, 500)
}

func (suite *RequestServiceTestSuite) submit(solver authz.Actor) *models.Request {
	request, err := suite.env.requests.SubmitRequest(suite.ctx, solver, suite.project.ID, "hello")
	suite.Require().NoError(err)
	return request
}

func (suite *RequestServiceTestSuite) TestSubmitRequest() {
	request := suite.submit(suite.solverA)

	suite.Equal(models.RequestStatusPending, request.Status)
	suite.Equal(suite.solverA.ID, request.SolverID)
	suite.Equal(suite.solverA.Email, request.SolverEmail)
	suite.Equal(suite.project.ID, request.ProjectID)
}

func (suite *RequestServiceTestSuite) TestSubmitRequest_Duplicate() {
	suite.submit(suite.solverA)

	_, err := suite.env.requests.SubmitRequest(suite.ctx, suite.solverA, suite.project.ID, "again")
	suite.ErrorIs(err, apierrors.ErrDuplicateRequest)
	suite.EqualError(err, "already requested")
}

func (suite *RequestServiceTestSuite) TestSubmitRequest_AfterRejectionAllowed() {
	request := suite.submit(suite.solverA)
	_, err := suite.env.requests.ResolveRequest(suite.ctx, suite.buyer, suite.project.ID, request.ID, ActionReject)
	suite.Require().NoError(err)

	again := suite.submit(suite.solverA)
	suite.NotEqual(request.ID, again.ID)
}

func (suite *RequestServiceTestSuite) TestSubmitRequest_Denials() {
	_, err := suite.env.requests.SubmitRequest(suite.ctx, suite.buyer, suite.project.ID, "")
	suite.ErrorIs(err, apierrors.ErrWrongRole)

	_, err = suite.env.requests.SubmitRequest(suite.ctx, suite.solverA, "missing", "")
	suite.ErrorIs(err, apierrors.ErrNotFound)

	request := suite.submit(suite.solverA)
	_, err = suite.env.requests.ResolveRequest(suite.ctx, suite.buyer, suite.project.ID, request.ID, ActionAccept)
	suite.Require().NoError(err)

	_, err = suite.env.requests.SubmitRequest(suite.ctx, suite.solverB, suite.project.ID, "")
	suite.ErrorIs(err, apierrors.ErrWrongStatus)
	suite.EqualError(err, "project is not open")
}

func (suite *RequestServiceTestSuite) TestRejectLeavesOthersAndProject() {
	reqA := suite.submit(suite.solverA)
	reqB := suite.submit(suite.solverB)

	rejected, err := suite.env.requests.ResolveRequest(suite.ctx, suite.buyer, suite.project.ID, reqA.ID, ActionReject)
	suite.Require().NoError(err)
	suite.Equal(models.RequestStatusRejected, rejected.Status)

	var stillPending models.Request
	suite.Require().NoError(suite.env.db.First(&stillPending, "id = ?", reqB.ID).Error)
	suite.Equal(models.RequestStatusPending, stillPending.Status)

	project, err := suite.env.projects.GetProject(suite.ctx, suite.project.ID)
	suite.Require().NoError(err)
	suite.Equal(models.ProjectStatusOpen, project.Status)
	suite.Nil(project.AssignedSolverID)
}

func (suite *RequestServiceTestSuite) TestResolve_Denials() {
	request := suite.submit(suite.solverA)

	_, err := suite.env.requests.ResolveRequest(suite.ctx, suite.other, suite.project.ID, request.ID, ActionAccept)
	suite.ErrorIs(err, apierrors.ErrNotOwner)

	_, err = suite.env.requests.ResolveRequest(suite.ctx, suite.buyer, suite.project.ID, request.ID, ReviewAction("APPROVE"))
	suite.ErrorIs(err, apierrors.ErrValidation)

	otherProject := testutil.CreateProject(suite.T(), suite.env.db, suite.buyer, 10)
	_, err = suite.env.requests.ResolveRequest(suite.ctx, suite.buyer, otherProject.ID, request.ID, ActionAccept)
	suite.ErrorIs(err, apierrors.ErrNotFound)

	_, err = suite.env.requests.ResolveRequest(suite.ctx, suite.buyer, suite.project.ID, request.ID, ActionReject)
	suite.Require().NoError(err)

	_, err = suite.env.requests.ResolveRequest(suite.ctx, suite.buyer, suite.project.ID, request.ID, ActionAccept)
	suite.ErrorIs(err, apierrors.ErrWrongStatus)
	suite.EqualError(err, "request is not pending")
}

func (suite *RequestServiceTestSuite) TestSecondAcceptFails() {
	reqA := suite.submit(suite.solverA)
	reqB := suite.submit(suite.solverB)

	_, err := suite.env.requests.ResolveRequest(suite.ctx, suite.buyer, suite.project.ID, reqA.ID, ActionAccept)
	suite.Require().NoError(err)

	_, err = suite.env.requests.ResolveRequest(suite.ctx, suite.buyer, suite.project.ID, reqB.ID, ActionAccept)
	suite.ErrorIs(err, apierrors.ErrWrongStatus)

	again, err := suite.env.requests.ResolveRequest(suite.ctx, suite.buyer, suite.project.ID, reqA.ID, ActionAccept)
	suite.Require().NoError(err)
	suite.Equal(models.RequestStatusAccepted, again.Status)

	_, err = suite.env.requests.ResolveRequest(suite.ctx, suite.other, suite.project.ID, reqA.ID, ActionAccept)
	suite.ErrorIs(err, apierrors.ErrNotOwner)

	_, err = suite.env.requests.ResolveRequest(suite.ctx, suite.buyer, suite.project.ID, reqA.ID, ActionReject)
	suite.ErrorIs(err, apierrors.ErrWrongStatus)
}

func (suite *RequestServiceTestSuite) TestConcurrentAcceptsHaveOneWinner() {
	solvers := []authz.Actor{suite.solverA, suite.solverB}
	for i := 0; i < 4; i++ {
		solvers = append(solvers, testutil.CreateUser(suite.T(), suite.env.db, "solver-x"+string(rune('0'+i)), models.RoleSolver))
	}

	requests := make([]*models.Request, 0, len(solvers))
	for _, s := range solvers {
		requests = append(requests, suite.submit(s))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(requests))
	for i, r := range requests {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = suite.env.requests.ResolveRequest(suite.ctx, suite.buyer, suite.project.ID, id, ActionAccept)
		}(i, r.ID)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		suite.ErrorIs(err, apierrors.ErrWrongStatus)
	}
	suite.Equal(1, winners)

	var accepted int64
	suite.Require().NoError(suite.env.db.Model(&models.Request{}).
		Where("project_id = ? AND status = ?", suite.project.ID, models.RequestStatusAccepted).
		Count(&accepted).Error)
	suite.Equal(int64(1), accepted)

	var winner models.Request
	suite.Require().NoError(suite.env.db.First(&winner, "status = ?", models.RequestStatusAccepted).Error)
	project, err := suite.env.projects.GetProject(suite.ctx, suite.project.ID)
	suite.Require().NoError(err)
	suite.True(project.IsAssignedTo(winner.SolverID))
}

// lostRaceProjectRepo reports every status transition as lost, as if another
// process had moved the project first.
type lostRaceProjectRepo struct {
	repository.ProjectRepository
}

func (r lostRaceProjectRepo) TransitionStatus(ctx context.Context, id string, from []models.ProjectStatus, to models.ProjectStatus, fields map[string]any) (bool, error) {
	return false, nil
}

func (suite *RequestServiceTestSuite) TestAcceptRollsBackWhenProjectTaken() {
	request := suite.submit(suite.solverA)

	log := zap.NewNop()
	projectRepo := lostRaceProjectRepo{repository.NewProjectRepository(suite.env.db)}
	projects := NewProjectService(projectRepo, suite.env.userRepo, log)
	requests := NewRequestService(repository.NewRequestRepository(suite.env.db), projectRepo, projects, lifecycle.NewKeyedMutex(), log)

	_, err := requests.ResolveRequest(suite.ctx, suite.buyer, suite.project.ID, request.ID, ActionAccept)
	suite.ErrorIs(err, apierrors.ErrWrongStatus)
	suite.EqualError(err, "project is not open")

	var stored models.Request
	suite.Require().NoError(suite.env.db.First(&stored, "id = ?", request.ID).Error)
	suite.Equal(models.RequestStatusRejected, stored.Status)
}

// failingSiblingsRepo fails RejectSiblings the first `failures` times.
type failingSiblingsRepo struct {
	repository.RequestRepository
	failures int
}

func (r *failingSiblingsRepo) RejectSiblings(ctx context.Context, projectID, keepID string) (int64, error) {
	if r.failures > 0 {
		r.failures--
		return 0, apierrors.StoreUnavailable("reject sibling requests", errors.New("connection reset"))
	}
	return r.RequestRepository.RejectSiblings(ctx, projectID, keepID)
}

func (suite *RequestServiceTestSuite) TestAcceptRetryRejectsSiblings() {
	reqA := suite.submit(suite.solverA)
	reqB := suite.submit(suite.solverB)

	log := zap.NewNop()
	projectRepo := repository.NewProjectRepository(suite.env.db)
	requestRepo := &failingSiblingsRepo{RequestRepository: repository.NewRequestRepository(suite.env.db), failures: 1}
	projects := NewProjectService(projectRepo, suite.env.userRepo, log)
	requests := NewRequestService(requestRepo, projectRepo, projects, lifecycle.NewKeyedMutex(), log)

	_, err := requests.ResolveRequest(suite.ctx, suite.buyer, suite.project.ID, reqA.ID, ActionAccept)
	suite.ErrorIs(err, apierrors.ErrStoreUnavailable)

	var sibling models.Request
	suite.Require().NoError(suite.env.db.First(&sibling, "id = ?", reqB.ID).Error)
	suite.Equal(models.RequestStatusPending, sibling.Status)

	accepted, err := requests.ResolveRequest(suite.ctx, suite.buyer, suite.project.ID, reqA.ID, ActionAccept)
	suite.Require().NoError(err)
	suite.Equal(models.RequestStatusAccepted, accepted.Status)

	suite.Require().NoError(suite.env.db.First(&sibling, "id = ?", reqB.ID).Error)
	suite.Equal(models.RequestStatusRejected, sibling.Status)

	project, err := suite.env.projects.GetProject(suite.ctx, suite.project.ID)
	suite.Require().NoError(err)
	suite.True(project.IsAssignedTo(suite.solverA.ID))
}

func (suite *RequestServiceTestSuite) TestAcceptZeroBudgetProject() {
	free := testutil.CreateProject(suite.T(), suite.env.db, suite.buyer, 0)
	request, err := suite.env.requests.SubmitRequest(suite.ctx, suite.solverA, free.ID, "")
	suite.Require().NoError(err)

	_, err = suite.env.requests.ResolveRequest(suite.ctx, suite.buyer, free.ID, request.ID, ActionAccept)
	suite.Require().NoError(err)

	project, err := suite.env.projects.GetProject(suite.ctx, free.ID)
	suite.Require().NoError(err)
	suite.Equal(models.ProjectStatusAssigned, project.Status)
	suite.True(project.Budget.Equal(decimal.Zero))
}

func TestRequestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RequestServiceTestSuite))
}
