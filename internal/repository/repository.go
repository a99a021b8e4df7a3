package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
)

// All repositories return *apierrors.Error values: NotFound when an id does
// not resolve, StoreUnavailable for any other store failure. Status changes
// are conditional: they report whether a row matched both the id and one of
// the expected pre-statuses.

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateIfAbsent inserts the user unless one with the same id exists
	CreateIfAbsent(ctx context.Context, user *models.User) (bool, error)

	// Save inserts or overwrites a user
	Save(ctx context.Context, user *models.User) error

	// FindByID finds a user by identity provider id
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List returns every user, newest first
	List(ctx context.Context) ([]models.User, error)

	// UpdateProfile patches name, bio or avatar
	UpdateProfile(ctx context.Context, id string, fields map[string]any) error

	// SetRole changes a user's role
	SetRole(ctx context.Context, id string, role models.Role) error

	// CreditBalance atomically adds amount to the user's balance
	CreditBalance(ctx context.Context, id string, amount decimal.Decimal) error
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	Status   *models.ProjectStatus
	BuyerID  string
	SolverID string
	Page     int
	PageSize int
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create inserts a new project
	Create(ctx context.Context, project *models.Project) error

	// FindByID finds a project by id
	FindByID(ctx context.Context, id string) (*models.Project, error)

	// List retrieves projects with filtering and pagination
	List(ctx context.Context, filter ProjectFilter) ([]models.Project, int64, error)

	// TransitionStatus moves the project to `to` if it is currently in one of `from`
	TransitionStatus(ctx context.Context, id string, from []models.ProjectStatus, to models.ProjectStatus, fields map[string]any) (bool, error)

	// UpdateFields patches non-status fields while the project is in one of `in`
	UpdateFields(ctx context.Context, id string, in []models.ProjectStatus, fields map[string]any) (bool, error)
}

// RequestRepository defines the interface for work request data access
type RequestRepository interface {
	// Create inserts a new request
	Create(ctx context.Context, request *models.Request) error

	// FindByID finds a request by id
	FindByID(ctx context.Context, id string) (*models.Request, error)

	// ListByProject lists a project's requests, newest first
	ListByProject(ctx context.Context, projectID string) ([]models.Request, error)

	// HasActive reports whether the solver holds a PENDING or ACCEPTED request on the project
	HasActive(ctx context.Context, projectID, solverID string) (bool, error)

	// TransitionStatus moves the request to `to` if it is currently in one of `from`
	TransitionStatus(ctx context.Context, id string, from []models.RequestStatus, to models.RequestStatus) (bool, error)

	// RejectSiblings rejects every request of the project except keepID, whatever its status
	RejectSiblings(ctx context.Context, projectID, keepID string) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectID   string
	SolverID    string
	SolverEmail string
	Status      *models.TaskStatus
	Page        int
	PageSize    int
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create inserts a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by id
	FindByID(ctx context.Context, id string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// TransitionStatus moves the task to `to` if it is currently in one of `from`
	TransitionStatus(ctx context.Context, id string, from []models.TaskStatus, to models.TaskStatus, fields map[string]any) (bool, error)

	// UpdateFields patches non-status fields while the task is in one of `in`
	UpdateFields(ctx context.Context, id string, in []models.TaskStatus, fields map[string]any) (bool, error)
}

// PayoutRepository defines the interface for the settlement ledger
type PayoutRepository interface {
	// Create appends a payout row
	Create(ctx context.Context, payout *models.Payout) error

	// FindByProject returns the payout recorded for a project
	FindByProject(ctx context.Context, projectID string) (*models.Payout, error)

	// List returns payouts, newest first, optionally for one solver
	List(ctx context.Context, solverID string) ([]models.Payout, error)
}

// Counts summarizes table sizes for the admin dashboard
type Counts struct {
	Projects int64 `json:"projects"`
	Tasks    int64 `json:"tasks"`
	Users    int64 `json:"users"`
	Requests int64 `json:"requests"`
	Payouts  int64 `json:"payouts"`
}

// MaintenanceRepository defines administrative bulk operations
type MaintenanceRepository interface {
	// Count returns the number of rows per table
	Count(ctx context.Context) (Counts, error)

	// WipeLifecycleData hard-deletes projects, tasks, requests and payouts
	WipeLifecycleData(ctx context.Context) error

	// InsertProjects bulk-inserts projects
	InsertProjects(ctx context.Context, projects []models.Project) error

	// InsertTasks bulk-inserts tasks
	InsertTasks(ctx context.Context, tasks []models.Task) error
}
