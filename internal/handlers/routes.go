package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/solver-marketplace-api/internal/middleware"
	"github.com/yukikurage/solver-marketplace-api/internal/models"
)

// Handlers groups every HTTP handler mounted under /api.
type Handlers struct {
	Auth     *AuthHandler
	Projects *ProjectHandler
	Requests *RequestHandler
	Tasks    *TaskHandler
	Uploads  *UploadHandler
	Users    *UserHandler
	Admin    *AdminHandler
}

// RegisterRoutes mounts the API. requireAuth must place the actor in the
// context; optionalAuth may leave it unset.
func RegisterRoutes(r *gin.Engine, h Handlers, requireAuth, optionalAuth gin.HandlerFunc) {
	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/session", h.Auth.CreateSession)
			auth.POST("/logout", h.Auth.Logout)
			auth.GET("/me", requireAuth, h.Auth.GetCurrentUser)
		}

		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.GET("", h.Projects.ListProjects)
			projects.POST("", h.Projects.CreateProject)
			projects.GET("/:id", h.Projects.GetProject)
			projects.PUT("/:id", h.Projects.UpdateProject)

			projects.GET("/:id/requests", h.Requests.ListRequests)
			projects.POST("/:id/requests", h.Requests.SubmitRequest)
			projects.PUT("/:id/requests/:rid", h.Requests.ResolveRequest)

			projects.GET("/:id/tasks", h.Tasks.ListProjectTasks)
			projects.POST("/:id/tasks", h.Tasks.CreateTask)
			projects.POST("/:id/tasks/draft", h.Tasks.DraftTasks)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", h.Tasks.ListTasks)
			tasks.GET("/:id", h.Tasks.GetTask)
			tasks.PUT("/:id", h.Tasks.UpdateTask)
			tasks.POST("/:id/start", h.Tasks.StartTask)
			tasks.POST("/:id/submit", h.Tasks.SubmitTask)
			tasks.PUT("/:id/review", h.Tasks.ReviewTask)
		}

		api.POST("/upload", requireAuth, h.Uploads.Upload)

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", h.Users.ListUsers)
			users.PUT("/me", h.Users.UpdateMe)
			users.GET("/:uid", h.Users.GetUser)
			users.PUT("/:uid/role", h.Users.ChangeRole)
		}

		// Bootstrap works without a session when the secret is presented.
		api.POST("/admin/bootstrap", optionalAuth, h.Users.BootstrapAdmin)

		admin := api.Group("/admin")
		admin.Use(requireAuth, middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/stats", h.Admin.Stats)
			admin.POST("/seed", h.Admin.Seed)
			admin.DELETE("/data", h.Admin.Wipe)
			admin.GET("/payouts", h.Admin.ListPayouts)
		}
	}
}
