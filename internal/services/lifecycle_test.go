package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/solver-marketplace-api/internal/authz"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
	"github.com/yukikurage/solver-marketplace-api/internal/testutil"
)

// LifecycleTestSuite walks projects and tasks end to end through the services.
type LifecycleTestSuite struct {
	suite.Suite
	env     *serviceEnv
	ctx     context.Context
	buyer   authz.Actor
	solverA authz.Actor
	solverB authz.Actor
	admin   authz.Actor
}

func (suite *LifecycleTestSuite) SetupTest() {
	suite.env = newServiceEnv(suite.T(), envOptions{})
	suite.ctx = context.Background()

	db := suite.env.db
	suite.buyer = testutil.CreateUser(suite.T(), db, "buyer", models.RoleBuyer)
	suite.solverA = testutil.CreateUser(suite.T(), db, "solver-a", models.RoleSolver)
	suite.solverB = testutil.CreateUser(suite.T(), db, "solver-b", models.RoleSolver)
	suite.admin = testutil.CreateUser(suite.T(), db, "admin", models.RoleAdmin)
}

func (suite *LifecycleTestSuite) createProject(budget int64) *models.Project {
	project, err := suite.env.projects.CreateProject(suite.ctx, suite.buyer, CreateProjectInput{
		Title:       "Landing page",
		Description: "Marketing site",
		Budget:      decimal.NewFromInt(budget),
	})
	suite.Require().NoError(err)
	return project
}

// assignTo runs the request flow and returns the assigned project.
func (suite *LifecycleTestSuite) assignTo(project *models.Project, solver authz.Actor) *models.Project {
	request, err := suite.env.requests.SubmitRequest(suite.ctx, solver, project.ID, "pick me")
	suite.Require().NoError(err)
	_, err = suite.env.requests.ResolveRequest(suite.ctx, suite.buyer, project.ID, request.ID, ActionAccept)
	suite.Require().NoError(err)

	project, err = suite.env.projects.GetProject(suite.ctx, project.ID)
	suite.Require().NoError(err)
	return project
}

func (suite *LifecycleTestSuite) submittedTask(project *models.Project, solver authz.Actor, title string) *models.Task {
	task, err := suite.env.tasks.CreateTask(suite.ctx, solver, project.ID, CreateTaskInput{Title: title})
	suite.Require().NoError(err)
	_, err = suite.env.tasks.StartTask(suite.ctx, solver, task.ID)
	suite.Require().NoError(err)
	task, err = suite.env.tasks.SubmitTask(suite.ctx, solver, task.ID, "file://"+title+".zip")
	suite.Require().NoError(err)
	return task
}

func (suite *LifecycleTestSuite) assertAssignmentInvariant(project *models.Project) {
	suite.Equal(project.Status == models.ProjectStatusOpen, project.AssignedSolverID == nil,
		"status %s with assigned solver %v", project.Status, project.AssignedSolverID)
}

func (suite *LifecycleTestSuite) TestHappyPath() {
	project := suite.createProject(500)
	suite.Equal(models.ProjectStatusOpen, project.Status)
	suite.Equal("Other", project.Category)
	suite.assertAssignmentInvariant(project)

	reqA, err := suite.env.requests.SubmitRequest(suite.ctx, suite.solverA, project.ID, "I can do it")
	suite.Require().NoError(err)
	reqB, err := suite.env.requests.SubmitRequest(suite.ctx, suite.solverB, project.ID, "Me too")
	suite.Require().NoError(err)

	accepted, err := suite.env.requests.ResolveRequest(suite.ctx, suite.buyer, project.ID, reqA.ID, ActionAccept)
	suite.Require().NoError(err)
	suite.Equal(models.RequestStatusAccepted, accepted.Status)

	requests, err := suite.env.requests.ListRequests(suite.ctx, project.ID)
	suite.Require().NoError(err)
	for _, r := range requests {
		if r.ID == reqB.ID {
			suite.Equal(models.RequestStatusRejected, r.Status)
		}
	}

	project, err = suite.env.projects.GetProject(suite.ctx, project.ID)
	suite.Require().NoError(err)
	suite.Equal(models.ProjectStatusAssigned, project.Status)
	suite.True(project.IsAssignedTo(suite.solverA.ID))
	suite.assertAssignmentInvariant(project)

	task, err := suite.env.tasks.CreateTask(suite.ctx, suite.solverA, project.ID, CreateTaskInput{Title: "Build page"})
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(suite.solverA.ID, task.SolverID)
	suite.Equal(project.Title, task.ProjectTitle)

	task, err = suite.env.tasks.StartTask(suite.ctx, suite.solverA, task.ID)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusInProgress, task.Status)

	task, err = suite.env.tasks.SubmitTask(suite.ctx, suite.solverA, task.ID, "file://x.zip")
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusSubmitted, task.Status)
	suite.NotNil(task.SubmittedAt)
	suite.Equal("file://x.zip", *task.SubmissionURL)

	task, err = suite.env.tasks.ReviewTask(suite.ctx, suite.buyer, task.ID, ActionAccept, "great")
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusCompleted, task.Status)
	suite.NotNil(task.ReviewedAt)

	suite.True(testutil.Balance(suite.T(), suite.env.db, suite.solverA.ID).Equal(decimal.NewFromInt(500)))

	project, err = suite.env.projects.GetProject(suite.ctx, project.ID)
	suite.Require().NoError(err)
	suite.Equal(models.ProjectStatusCompleted, project.Status)
	suite.NotNil(project.CompletedAt)
	suite.assertAssignmentInvariant(project)

	var payouts []models.Payout
	suite.Require().NoError(suite.env.db.Find(&payouts).Error)
	suite.Require().Len(payouts, 1)
	suite.Equal(task.ID, payouts[0].TaskID)
}

func (suite *LifecycleTestSuite) TestRejectThenResubmit() {
	project := suite.assignTo(suite.createProject(500), suite.solverA)
	task := suite.submittedTask(project, suite.solverA, "draft")

	task, err := suite.env.tasks.ReviewTask(suite.ctx, suite.buyer, task.ID, ActionReject, "needs work")
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusRejected, task.Status)
	suite.Equal("needs work", *task.Feedback)

	project, err = suite.env.projects.GetProject(suite.ctx, project.ID)
	suite.Require().NoError(err)
	suite.Equal(models.ProjectStatusAssigned, project.Status)
	suite.True(testutil.Balance(suite.T(), suite.env.db, suite.solverA.ID).IsZero())

	task, err = suite.env.tasks.SubmitTask(suite.ctx, suite.solverA, task.ID, "file://v2.zip")
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusSubmitted, task.Status)
	suite.Equal("file://v2.zip", *task.SubmissionURL)
	suite.Require().NotNil(task.Feedback)
	suite.Equal("needs work", *task.Feedback)
}

func (suite *LifecycleTestSuite) TestSettlementPaysOncePerProject() {
	project := suite.assignTo(suite.createProject(500), suite.solverA)
	first := suite.submittedTask(project, suite.solverA, "first")
	second := suite.submittedTask(project, suite.solverA, "second")

	_, err := suite.env.tasks.ReviewTask(suite.ctx, suite.buyer, first.ID, ActionAccept, "")
	suite.Require().NoError(err)
	_, err = suite.env.tasks.ReviewTask(suite.ctx, suite.admin, second.ID, ActionAccept, "")
	suite.Require().NoError(err)

	suite.True(testutil.Balance(suite.T(), suite.env.db, suite.solverA.ID).Equal(decimal.NewFromInt(500)))
}

func (suite *LifecycleTestSuite) TestZeroBudgetStaysAssigned() {
	project := suite.assignTo(suite.createProject(0), suite.solverA)
	task := suite.submittedTask(project, suite.solverA, "free")

	task, err := suite.env.tasks.ReviewTask(suite.ctx, suite.buyer, task.ID, ActionAccept, "")
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusCompleted, task.Status)

	project, err = suite.env.projects.GetProject(suite.ctx, project.ID)
	suite.Require().NoError(err)
	suite.Equal(models.ProjectStatusAssigned, project.Status)
	suite.True(testutil.Balance(suite.T(), suite.env.db, suite.solverA.ID).IsZero())
}

func (suite *LifecycleTestSuite) TestCreateTaskRequiresAssignment() {
	project := suite.createProject(500)

	_, err := suite.env.tasks.CreateTask(suite.ctx, suite.solverA, project.ID, CreateTaskInput{Title: "Build page"})
	suite.ErrorIs(err, apierrors.ErrWrongStatus)

	project = suite.assignTo(project, suite.solverA)

	_, err = suite.env.tasks.CreateTask(suite.ctx, suite.solverA, project.ID, CreateTaskInput{Title: "  "})
	suite.ErrorIs(err, apierrors.ErrValidation)

	_, err = suite.env.tasks.CreateTask(suite.ctx, suite.solverB, project.ID, CreateTaskInput{Title: "Build page"})
	suite.ErrorIs(err, apierrors.ErrNotOwner)

	task, err := suite.env.tasks.CreateTask(suite.ctx, suite.solverA, project.ID, CreateTaskInput{Title: "Build page"})
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusTodo, task.Status)
}

func (suite *LifecycleTestSuite) TestTaskTransitionsAreGuarded() {
	project := suite.assignTo(suite.createProject(500), suite.solverA)
	task, err := suite.env.tasks.CreateTask(suite.ctx, suite.solverA, project.ID, CreateTaskInput{Title: "t"})
	suite.Require().NoError(err)

	_, err = suite.env.tasks.SubmitTask(suite.ctx, suite.solverA, task.ID, "file://early.zip")
	suite.ErrorIs(err, apierrors.ErrWrongStatus)

	_, err = suite.env.tasks.StartTask(suite.ctx, suite.solverB, task.ID)
	suite.ErrorIs(err, apierrors.ErrNotOwner)

	_, err = suite.env.tasks.ReviewTask(suite.ctx, suite.buyer, task.ID, ActionAccept, "")
	suite.ErrorIs(err, apierrors.ErrWrongStatus)

	_, err = suite.env.tasks.ReviewTask(suite.ctx, suite.buyer, task.ID, ReviewAction("MAYBE"), "")
	suite.ErrorIs(err, apierrors.ErrValidation)

	_, err = suite.env.tasks.StartTask(suite.ctx, suite.solverA, "missing")
	suite.ErrorIs(err, apierrors.ErrNotFound)
}

func (suite *LifecycleTestSuite) TestUpdateTaskDetails() {
	project := suite.assignTo(suite.createProject(500), suite.solverA)
	task := suite.submittedTask(project, suite.solverA, "t")

	title := "Renamed"
	updated, err := suite.env.tasks.UpdateTaskDetails(suite.ctx, suite.solverA, task.ID, UpdateTaskInput{Title: &title})
	suite.Require().NoError(err)
	suite.Equal("Renamed", updated.Title)
	suite.Equal(models.TaskStatusSubmitted, updated.Status)

	_, err = suite.env.tasks.UpdateTaskDetails(suite.ctx, suite.solverB, task.ID, UpdateTaskInput{Title: &title})
	suite.ErrorIs(err, apierrors.ErrNotOwner)

	_, err = suite.env.tasks.ReviewTask(suite.ctx, suite.buyer, task.ID, ActionAccept, "")
	suite.Require().NoError(err)

	_, err = suite.env.tasks.UpdateTaskDetails(suite.ctx, suite.solverA, task.ID, UpdateTaskInput{Title: &title})
	suite.ErrorIs(err, apierrors.ErrWrongStatus)
}

func (suite *LifecycleTestSuite) TestUpdateProject() {
	project := suite.createProject(500)

	budget := decimal.NewFromInt(800)
	title := "Bigger landing page"
	updated, err := suite.env.projects.UpdateProject(suite.ctx, suite.buyer, project.ID, UpdateProjectInput{Title: &title, Budget: &budget})
	suite.Require().NoError(err)
	suite.Equal(title, updated.Title)
	suite.True(updated.Budget.Equal(budget))
	suite.Equal(models.ProjectStatusOpen, updated.Status)

	negative := decimal.NewFromInt(-1)
	_, err = suite.env.projects.UpdateProject(suite.ctx, suite.buyer, project.ID, UpdateProjectInput{Budget: &negative})
	suite.ErrorIs(err, apierrors.ErrValidation)

	_, err = suite.env.projects.UpdateProject(suite.ctx, suite.solverA, project.ID, UpdateProjectInput{Title: &title})
	suite.ErrorIs(err, apierrors.ErrNotOwner)
}

func (suite *LifecycleTestSuite) TestCreateProjectRules() {
	_, err := suite.env.projects.CreateProject(suite.ctx, suite.solverA, CreateProjectInput{Title: "t", Description: "d"})
	suite.ErrorIs(err, apierrors.ErrWrongRole)

	_, err = suite.env.projects.CreateProject(suite.ctx, suite.buyer, CreateProjectInput{Title: "t", Description: "d", Budget: decimal.NewFromInt(-5)})
	suite.ErrorIs(err, apierrors.ErrValidation)

	_, err = suite.env.projects.CreateProject(suite.ctx, suite.buyer, CreateProjectInput{Title: "", Description: "d"})
	suite.ErrorIs(err, apierrors.ErrValidation)

	onBehalf, err := suite.env.projects.CreateProject(suite.ctx, suite.admin, CreateProjectInput{
		Title: "t", Description: "d", BuyerID: suite.buyer.ID,
	})
	suite.Require().NoError(err)
	suite.Equal(suite.buyer.ID, onBehalf.BuyerID)
	suite.Equal(suite.buyer.Email, onBehalf.BuyerEmail)

	_, err = suite.env.projects.CreateProject(suite.ctx, suite.admin, CreateProjectInput{
		Title: "t", Description: "d", BuyerID: "nobody",
	})
	suite.ErrorIs(err, apierrors.ErrNotFound)
}

func (suite *LifecycleTestSuite) TestListProjectsAndTasks() {
	open := suite.createProject(100)
	assigned := suite.assignTo(suite.createProject(200), suite.solverA)
	suite.submittedTask(assigned, suite.solverA, "t1")

	status := models.ProjectStatusOpen
	projects, total, err := suite.env.projects.ListProjects(suite.ctx, ListProjectsInput{Status: &status})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Equal(open.ID, projects[0].ID)

	projects, _, err = suite.env.projects.ListProjects(suite.ctx, ListProjectsInput{SolverID: suite.solverA.ID})
	suite.Require().NoError(err)
	suite.Len(projects, 1)

	tasks, total, err := suite.env.tasks.ListTasks(suite.ctx, ListTasksInput{SolverEmail: suite.solverA.Email})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Equal(models.TaskStatusSubmitted, tasks[0].Status)
}

func TestLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(LifecycleTestSuite))
}
