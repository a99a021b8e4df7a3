// Package lifecycle holds the status transition tables for projects, requests
// and tasks, and the per-key lock used to serialize multi-step transitions.
package lifecycle

import "github.com/yukikurage/solver-marketplace-api/internal/models"

// Machine enforces status transitions for one entity type.
type Machine[S ~string] struct {
	allowedTransitions map[S][]S
}

func newMachine[S ~string](transitions map[S][]S) *Machine[S] {
	return &Machine[S]{allowedTransitions: transitions}
}

// CanTransition checks if a status transition is allowed
func (m *Machine[S]) CanTransition(from, to S) bool {
	for _, allowedTo := range m.allowedTransitions[from] {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the allowed next statuses for a given status
func (m *Machine[S]) AllowedTransitions(from S) []S {
	allowed, exists := m.allowedTransitions[from]
	if !exists {
		return []S{}
	}
	return allowed
}

// SourcesOf returns every status that may move to `to`. Conditional writes
// use it as the expected pre-status set.
func (m *Machine[S]) SourcesOf(to S) []S {
	var sources []S
	for from, targets := range m.allowedTransitions {
		for _, t := range targets {
			if t == to {
				sources = append(sources, from)
				break
			}
		}
	}
	return sources
}

// Knows reports whether s is a status of this machine.
func (m *Machine[S]) Knows(s S) bool {
	_, ok := m.allowedTransitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves from.
func (m *Machine[S]) IsTerminal(from S) bool {
	return len(m.allowedTransitions[from]) == 0
}

var (
	// ProjectMachine: OPEN -> ASSIGNED -> COMPLETED. No skips, no way back.
	ProjectMachine = newMachine(map[models.ProjectStatus][]models.ProjectStatus{
		models.ProjectStatusOpen:      {models.ProjectStatusAssigned},
		models.ProjectStatusAssigned:  {models.ProjectStatusCompleted},
		models.ProjectStatusCompleted: {},
	})

	// RequestMachine: PENDING -> ACCEPTED | REJECTED. ACCEPTED -> REJECTED is
	// only used to undo an acceptance that lost the project assignment race.
	RequestMachine = newMachine(map[models.RequestStatus][]models.RequestStatus{
		models.RequestStatusPending:  {models.RequestStatusAccepted, models.RequestStatusRejected},
		models.RequestStatusAccepted: {models.RequestStatusRejected},
		models.RequestStatusRejected: {},
	})

	// TaskMachine: REJECTED is not terminal, the solver may resubmit.
	TaskMachine = newMachine(map[models.TaskStatus][]models.TaskStatus{
		models.TaskStatusTodo:       {models.TaskStatusInProgress},
		models.TaskStatusInProgress: {models.TaskStatusSubmitted},
		models.TaskStatusSubmitted:  {models.TaskStatusCompleted, models.TaskStatusRejected},
		models.TaskStatusRejected:   {models.TaskStatusSubmitted},
		models.TaskStatusCompleted:  {},
	})
)
