package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/team-task-api/internal/constants"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/handlers"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/storage"
)

// uploadBodyLimit leaves room for the form fields around the files
const uploadBodyLimit = constants.MaxUploadFiles*constants.MaxUploadFileSize + 1<<20

type Handlers struct {
	Auth      *handlers.AuthHandler
	Task      *handlers.TaskHandler
	DailyWork *handlers.DailyWorkHandler
	Team      *handlers.TeamHandler
	Health    *handlers.HealthHandler
}

type Options struct {
	AllowOrigins    []string
	Authenticator   middleware.Authenticator
	Limiter         middleware.RateLimiter
	AuthRateLimit   int
	RateLimitWindow time.Duration
	// Uploads serves stored files when attachments are kept on local disk
	Uploads *storage.LocalStorage
	Logger  *zap.Logger
}

// Setup builds the gin engine with every route
func Setup(h Handlers, opts Options) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(opts.AllowOrigins))

	r.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "Route not found")
	})

	r.GET("/health", h.Health.Check)

	if opts.Uploads != nil {
		uploads := r.Group(opts.Uploads.PublicURL(), middleware.DownloadOnly())
		uploads.StaticFS("/", opts.Uploads.FileSystem())
	}

	requireAuth := middleware.RequireAuth(opts.Authenticator, opts.Logger)
	requireManager := middleware.RequireManager()
	requireEmployee := middleware.RequireEmployee()
	uploadLimit := middleware.BodyLimit(uploadBodyLimit)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health.Check)

		// Auth routes (public)
		auth := api.Group("/auth")
		{
			limited := auth.Group("", middleware.RateLimit(opts.Limiter, opts.AuthRateLimit, opts.RateLimitWindow, opts.Logger))
			limited.POST("/register/manager", h.Auth.RegisterManager)
			limited.POST("/register/employee", h.Auth.RegisterEmployee)
			limited.POST("/login", h.Auth.Login)

			auth.GET("/me", requireAuth, h.Auth.GetCurrentUser)
			auth.PUT("/me", requireAuth, h.Auth.UpdateCurrentUser)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks", requireAuth)
		{
			tasks.GET("/manager", requireManager, h.Task.ListManagerTasks)
			tasks.GET("/employee", requireEmployee, h.Task.ListEmployeeTasks)
			tasks.GET("/team-members", requireManager, h.Task.ListTeamMembers)
			tasks.POST("", requireManager, h.Task.CreateTask)
			tasks.POST("/generate", requireManager, h.Task.GenerateTasks)
			tasks.PUT("/:id", requireManager, h.Task.UpdateTask)
			tasks.DELETE("/:id", requireManager, h.Task.DeleteTask)
			tasks.PATCH("/:id/status", requireEmployee, h.Task.UpdateStatus)
			tasks.POST("/:id/submit", requireEmployee, uploadLimit, h.Task.SubmitTask)
			tasks.PATCH("/:id/submissions/:submissionId/review", requireManager, h.Task.ReviewSubmission)
		}

		// Daily work routes (protected)
		dailyWork := api.Group("/daily-work", requireAuth)
		{
			dailyWork.GET("/employee", requireEmployee, h.DailyWork.ListMine)
			dailyWork.GET("/stats", requireEmployee, h.DailyWork.Stats)
			dailyWork.GET("/team", requireManager, h.DailyWork.ListTeam)
			dailyWork.GET("/team/export", requireManager, h.DailyWork.ExportTeam)
			dailyWork.POST("", requireEmployee, h.DailyWork.Create)
			dailyWork.PUT("/:id", requireEmployee, h.DailyWork.Update)
			dailyWork.DELETE("/:id", requireEmployee, h.DailyWork.Delete)
			dailyWork.POST("/:id/attachments", requireEmployee, uploadLimit, h.DailyWork.AttachFiles)
		}

		// Team routes (protected)
		team := api.Group("/team", requireAuth)
		{
			team.GET("/members", requireManager, h.Team.Members)
			team.GET("/stats", requireManager, h.Team.Stats)
			team.GET("/performance", requireManager, h.Team.Performance)
			team.PATCH("/members/:id/status", requireManager, h.Team.SetMemberStatus)
			team.GET("/info", h.Team.Info)
		}
	}

	return r
}
