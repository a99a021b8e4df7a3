package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/solver-marketplace-api/internal/config"
	"github.com/yukikurage/solver-marketplace-api/internal/constants"
	"github.com/yukikurage/solver-marketplace-api/internal/database"
	"github.com/yukikurage/solver-marketplace-api/internal/handlers"
	"github.com/yukikurage/solver-marketplace-api/internal/identity"
	"github.com/yukikurage/solver-marketplace-api/internal/lifecycle"
	"github.com/yukikurage/solver-marketplace-api/internal/middleware"
	"github.com/yukikurage/solver-marketplace-api/internal/repository"
	"github.com/yukikurage/solver-marketplace-api/internal/services"
	"github.com/yukikurage/solver-marketplace-api/internal/storage"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg, logger); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	db := database.GetDB()

	// Identity provider tokens are optional; without a key only existing
	// sessions authenticate.
	verifier, err := identity.NewVerifier(cfg.IdentitySigningKey, cfg.IdentityIssuer)
	if err != nil {
		logger.Warn("Identity token verification disabled", zap.Error(err))
		verifier = nil
	}

	var objectStore storage.ObjectStore
	if cfg.S3Bucket != "" {
		objectStore, err = storage.NewS3Store(context.Background(), storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PublicBaseURL:   cfg.S3PublicBaseURL,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
		})
		if err != nil {
			logger.Fatal("Failed to configure object storage", zap.Error(err))
		}
	}

	// Initialize AI service
	var drafter services.TaskDrafter
	if cfg.OpenAIAPIKey != "" {
		drafter = services.NewAIService(cfg.OpenAIAPIKey)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	maintRepo := repository.NewMaintenanceRepository(db)

	// Services share one lock table so arbitration and settlement on the same
	// project never interleave.
	locks := lifecycle.NewKeyedMutex()
	projectService := services.NewProjectService(projectRepo, userRepo, logger)
	settlementService := services.NewSettlementService(projectRepo, userRepo, payoutRepo, projectService, locks, logger)
	requestService := services.NewRequestService(requestRepo, projectRepo, projectService, locks, logger)
	taskService := services.NewTaskService(taskRepo, projectRepo, settlementService, drafter, logger)
	userService := services.NewUserService(userRepo, cfg.AdminBootstrapSecretHash, logger)
	uploadService := services.NewUploadService(objectStore, taskService, cfg.UploadMaxBytes, logger)
	maintenanceService := services.NewMaintenanceService(maintRepo, payoutRepo, logger)

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		logger.Fatal("Failed to create Redis store", zap.Error(err))
	}
	isProduction := cfg.GinMode == gin.ReleaseMode
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	r.GET("/health", handlers.Health(db))

	handlers.RegisterRoutes(r, handlers.Handlers{
		Auth:     handlers.NewAuthHandler(verifier, userService, logger),
		Projects: handlers.NewProjectHandler(projectService, logger),
		Requests: handlers.NewRequestHandler(requestService, logger),
		Tasks:    handlers.NewTaskHandler(taskService, logger),
		Uploads:  handlers.NewUploadHandler(uploadService, logger),
		Users:    handlers.NewUserHandler(userService, logger),
		Admin:    handlers.NewAdminHandler(maintenanceService, logger),
	},
		middleware.RequireAuth(verifier, userService),
		middleware.OptionalAuth(verifier, userService),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()
	logger.Info("Server started", zap.String("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.GinMode == gin.ReleaseMode {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
