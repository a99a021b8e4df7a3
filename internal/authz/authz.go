// Package authz decides whether an actor may perform an action on a resource.
// Decisions are pure functions of the actor's role and the resource snapshot
// passed in; nothing here reads the store.
package authz

import (
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/lifecycle"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
)

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID    string
	Email string
	Name  string
	Role  models.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

type Action string

const (
	ActionCreateProject  Action = "project:create"
	ActionEditProject    Action = "project:edit"
	ActionSubmitRequest  Action = "request:submit"
	ActionResolveRequest Action = "request:resolve"
	ActionCreateTask     Action = "task:create"
	ActionStartTask      Action = "task:start"
	ActionSubmitTask     Action = "task:submit"
	ActionEditTask       Action = "task:edit"
	ActionReviewTask     Action = "task:review"
	ActionChangeRole     Action = "user:change-role"
	ActionListUsers      Action = "user:list"
	ActionMaintain       Action = "admin:maintain"
)

// Resource is the snapshot an action is checked against. Only the fields an
// action needs must be set.
type Resource struct {
	Project *models.Project
	Task    *models.Task

	// BuyerID is the buyer a project is being created for.
	BuyerID string
	// TargetUserID is the user whose role is being changed.
	TargetUserID string
	// HasActiveRequest is true when the actor already holds a PENDING or
	// ACCEPTED request on Project.
	HasActiveRequest bool
}

// Authorize returns nil when allowed, otherwise an *apierrors.Error of kind
// NotOwner, WrongStatus, WrongRole or DuplicateRequest.
func Authorize(actor Actor, action Action, res Resource) error {
	switch action {
	case ActionCreateProject:
		return canCreateProject(actor, res)
	case ActionEditProject:
		return canEditProject(actor, res)
	case ActionSubmitRequest:
		return canSubmitRequest(actor, res)
	case ActionResolveRequest:
		return canResolveRequest(actor, res)
	case ActionCreateTask:
		return canCreateTask(actor, res)
	case ActionStartTask:
		return canMoveTask(actor, res, models.TaskStatusInProgress, "only the task's solver can start it", "task must be TODO to start")
	case ActionSubmitTask:
		return canMoveTask(actor, res, models.TaskStatusSubmitted, "only the task's solver can submit it", "task must be in progress or rejected to submit")
	case ActionEditTask:
		return canEditTask(actor, res)
	case ActionReviewTask:
		return canReviewTask(actor, res)
	case ActionChangeRole:
		return canChangeRole(actor, res)
	case ActionListUsers, ActionMaintain:
		if !actor.IsAdmin() {
			return apierrors.New(apierrors.KindWrongRole, "admin role required")
		}
		return nil
	}
	return apierrors.Newf(apierrors.KindWrongRole, "unknown action %q", action)
}

func canCreateProject(actor Actor, res Resource) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleBuyer:
		if res.BuyerID != "" && res.BuyerID != actor.ID {
			return apierrors.New(apierrors.KindNotOwner, "buyers can only create projects for themselves")
		}
		return nil
	}
	return apierrors.New(apierrors.KindWrongRole, "only buyers or admins can create projects")
}

func canEditProject(actor Actor, res Resource) error {
	if res.Project == nil {
		return apierrors.NotFoundError("project")
	}
	if !OwnsProject(actor, res.Project) {
		return apierrors.New(apierrors.KindNotOwner, "only the project's buyer or an admin can edit it")
	}
	if lifecycle.ProjectMachine.IsTerminal(res.Project.Status) {
		return apierrors.New(apierrors.KindWrongStatus, "project is completed")
	}
	return nil
}

func canSubmitRequest(actor Actor, res Resource) error {
	if actor.Role != models.RoleSolver {
		return apierrors.New(apierrors.KindWrongRole, "only solvers can request projects")
	}
	if res.Project == nil {
		return apierrors.NotFoundError("project")
	}
	if res.Project.Status != models.ProjectStatusOpen {
		return apierrors.New(apierrors.KindWrongStatus, "project is not open")
	}
	if res.HasActiveRequest {
		return apierrors.New(apierrors.KindDuplicateRequest, "already requested")
	}
	return nil
}

func canResolveRequest(actor Actor, res Resource) error {
	if res.Project == nil {
		return apierrors.NotFoundError("project")
	}
	if !OwnsProject(actor, res.Project) {
		return apierrors.New(apierrors.KindNotOwner, "only the project's buyer or an admin can resolve requests")
	}
	if res.Project.Status != models.ProjectStatusOpen {
		return apierrors.New(apierrors.KindWrongStatus, "project is not open")
	}
	return nil
}

func canCreateTask(actor Actor, res Resource) error {
	if res.Project == nil {
		return apierrors.NotFoundError("project")
	}
	// Status first: an OPEN project has no assigned solver to compare against.
	if res.Project.Status == models.ProjectStatusOpen {
		return apierrors.New(apierrors.KindWrongStatus, "project is not assigned yet")
	}
	if !res.Project.IsAssignedTo(actor.ID) {
		return apierrors.New(apierrors.KindNotOwner, "only the assigned solver can create tasks")
	}
	return nil
}

func canMoveTask(actor Actor, res Resource, to models.TaskStatus, ownerMsg, statusMsg string) error {
	if res.Task == nil {
		return apierrors.NotFoundError("task")
	}
	if res.Task.SolverID != actor.ID {
		return apierrors.New(apierrors.KindNotOwner, ownerMsg)
	}
	if !lifecycle.TaskMachine.CanTransition(res.Task.Status, to) {
		return apierrors.New(apierrors.KindWrongStatus, statusMsg)
	}
	return nil
}

func canEditTask(actor Actor, res Resource) error {
	if res.Task == nil {
		return apierrors.NotFoundError("task")
	}
	if res.Task.SolverID != actor.ID {
		return apierrors.New(apierrors.KindNotOwner, "only the task's solver can edit it")
	}
	if lifecycle.TaskMachine.IsTerminal(res.Task.Status) {
		return apierrors.New(apierrors.KindWrongStatus, "task is completed")
	}
	return nil
}

func canReviewTask(actor Actor, res Resource) error {
	if res.Task == nil {
		return apierrors.NotFoundError("task")
	}
	if res.Project == nil {
		return apierrors.NotFoundError("project")
	}
	if !OwnsProject(actor, res.Project) {
		return apierrors.New(apierrors.KindNotOwner, "only the project's buyer or an admin can review tasks")
	}
	if res.Task.Status != models.TaskStatusSubmitted {
		return apierrors.New(apierrors.KindWrongStatus, "task is not submitted")
	}
	return nil
}

func canChangeRole(actor Actor, res Resource) error {
	if !actor.IsAdmin() {
		return apierrors.New(apierrors.KindWrongRole, "only admins can change roles")
	}
	if res.TargetUserID == actor.ID {
		return apierrors.New(apierrors.KindNotOwner, "admins cannot change their own role")
	}
	return nil
}

// OwnsProject reports whether actor is the project's buyer or an admin.
func OwnsProject(actor Actor, p *models.Project) bool {
	return actor.IsAdmin() || p.BuyerID == actor.ID
}
