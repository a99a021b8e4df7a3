package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/solver-marketplace-api/internal/authz"
	"github.com/yukikurage/solver-marketplace-api/internal/constants"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/identity"
	"github.com/yukikurage/solver-marketplace-api/internal/lifecycle"
	"github.com/yukikurage/solver-marketplace-api/internal/middleware"
	"github.com/yukikurage/solver-marketplace-api/internal/repository"
	"github.com/yukikurage/solver-marketplace-api/internal/services"
	"github.com/yukikurage/solver-marketplace-api/internal/storage"
	"github.com/yukikurage/solver-marketplace-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// apiEnv is the full router over an in-memory database.
type apiEnv struct {
	t        *testing.T
	db       *gorm.DB
	router   *gin.Engine
	verifier *identity.Verifier
	store    *testutil.MemoryObjectStore
}

type apiOptions struct {
	drafter       services.TaskDrafter
	noStorage     bool
	secretHash    string
	maxUploadSize int64
}

func newAPIEnv(t *testing.T, opts apiOptions) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	log := zap.NewNop()
	locks := lifecycle.NewKeyedMutex()

	verifier, err := identity.NewVerifier("test-signing-key", "")
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)

	projects := services.NewProjectService(projectRepo, userRepo, log)
	settlement := services.NewSettlementService(projectRepo, userRepo, payoutRepo, projects, locks, log)
	requests := services.NewRequestService(repository.NewRequestRepository(db), projectRepo, projects, locks, log)
	tasks := services.NewTaskService(repository.NewTaskRepository(db), projectRepo, settlement, opts.drafter, log)
	users := services.NewUserService(userRepo, opts.secretHash, log)
	maintenance := services.NewMaintenanceService(repository.NewMaintenanceRepository(db), payoutRepo, log)

	memStore := testutil.NewMemoryObjectStore()
	var objectStore storage.ObjectStore = memStore
	if opts.noStorage {
		objectStore = nil
	}
	maxUpload := opts.maxUploadSize
	if maxUpload == 0 {
		maxUpload = constants.DefaultMaxUploadBytes
	}
	uploads := services.NewUploadService(objectStore, tasks, maxUpload, log)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.GET("/health", Health(db))
	RegisterRoutes(r, Handlers{
		Auth:     NewAuthHandler(verifier, users, log),
		Projects: NewProjectHandler(projects, log),
		Requests: NewRequestHandler(requests, log),
		Tasks:    NewTaskHandler(tasks, log),
		Uploads:  NewUploadHandler(uploads, log),
		Users:    NewUserHandler(users, log),
		Admin:    NewAdminHandler(maintenance, log),
	},
		middleware.RequireAuth(verifier, users),
		middleware.OptionalAuth(verifier, users),
	)

	return &apiEnv{t: t, db: db, router: r, verifier: verifier, store: memStore}
}

// token issues a bearer token for actor.
func (e *apiEnv) token(actor authz.Actor) string {
	e.t.Helper()
	token, err := e.verifier.Issue(identity.Identity{ID: actor.ID, Email: actor.Email, Name: actor.Name}, time.Hour)
	require.NoError(e.t, err)
	return token
}

// do sends a JSON request as actor. A nil actor sends no credentials.
func (e *apiEnv) do(method, path string, actor *authz.Actor, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(*actor))
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierrors.APIError](t, w).Code
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
