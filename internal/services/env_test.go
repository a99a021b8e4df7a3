package services

import (
	"testing"

	"github.com/yukikurage/solver-marketplace-api/internal/constants"
	"github.com/yukikurage/solver-marketplace-api/internal/lifecycle"
	"github.com/yukikurage/solver-marketplace-api/internal/repository"
	"github.com/yukikurage/solver-marketplace-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// serviceEnv wires every service against one in-memory database.
type serviceEnv struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	projects    *ProjectService
	requests    *RequestService
	tasks       *TaskService
	settlement  *SettlementService
	users       *UserService
	maintenance *MaintenanceService
	uploads     *UploadService
	store       *testutil.MemoryObjectStore
}

type envOptions struct {
	drafter      TaskDrafter
	userRepo     repository.UserRepository
	secretHash   string
	maxUploadLen int64
}

func newServiceEnv(t *testing.T, opts envOptions) *serviceEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	log := zap.NewNop()
	locks := lifecycle.NewKeyedMutex()

	userRepo := opts.userRepo
	if userRepo == nil {
		userRepo = repository.NewUserRepository(db)
	}
	projectRepo := repository.NewProjectRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)

	projects := NewProjectService(projectRepo, userRepo, log)
	settlement := NewSettlementService(projectRepo, userRepo, payoutRepo, projects, locks, log)
	tasks := NewTaskService(taskRepo, projectRepo, settlement, opts.drafter, log)
	store := testutil.NewMemoryObjectStore()

	maxUpload := opts.maxUploadLen
	if maxUpload == 0 {
		maxUpload = constants.DefaultMaxUploadBytes
	}

	return &serviceEnv{
		db:          db,
		userRepo:    userRepo,
		projects:    projects,
		requests:    NewRequestService(requestRepo, projectRepo, projects, locks, log),
		tasks:       tasks,
		settlement:  settlement,
		users:       NewUserService(userRepo, opts.secretHash, log),
		maintenance: NewMaintenanceService(repository.NewMaintenanceRepository(db), payoutRepo, log),
		uploads:     NewUploadService(store, tasks, maxUpload, log),
		store:       store,
	}
}
