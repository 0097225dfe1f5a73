package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yukikurage/team-task-api/internal/config"
	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/database"
	"github.com/yukikurage/team-task-api/internal/handlers"
	"github.com/yukikurage/team-task-api/internal/logger"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/ratelimit"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/router"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/storage"
	"github.com/yukikurage/team-task-api/internal/token"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	gin.SetMode(cfg.Gin.Mode)

	// Connect to database
	db, err := database.Open(cfg.DB, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(db, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis is optional; without it the auth routes are not rate limited
	var limiter middleware.RateLimiter
	rdb, err := ratelimit.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
	} else if rdb != nil {
		limiter = ratelimit.NewLimiter(rdb)
		defer rdb.Close()
	}

	// Attachment storage
	var (
		store storage.Storage
		local *storage.LocalStorage
		ctx   = context.Background()
	)
	switch cfg.Storage.Driver {
	case "s3":
		client, err := storage.NewS3Client(ctx, cfg.Storage.S3)
		if err != nil {
			log.Fatal("failed to create s3 client", zap.Error(err))
		}
		store = storage.NewS3Storage(client, cfg.Storage.S3.Bucket)
	default:
		local, err = storage.NewLocalStorage(afero.NewOsFs(), cfg.Storage.LocalDir, cfg.Storage.PublicURL,
			constants.UploadScopeTasks, constants.UploadScopeDailyWork)
		if err != nil {
			log.Fatal("failed to prepare upload directory", zap.Error(err))
		}
		store = local
	}

	// Initialize AI service
	var drafter services.TaskDrafter
	if cfg.OpenAI.APIKey != "" {
		drafter = services.NewAIService(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	dailyWorkRepo := repository.NewDailyWorkRepository(db)

	// Services
	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)
	authService := services.NewAuthService(userRepo, teamRepo, tokens, log)
	taskService := services.NewTaskService(taskRepo, userRepo, store, drafter, log)
	submissionService := services.NewSubmissionService(taskRepo, submissionRepo, store, log)
	dailyWorkService := services.NewDailyWorkService(dailyWorkRepo, store, log)
	teamService := services.NewTeamService(userRepo, teamRepo, taskRepo, dailyWorkRepo, log)

	engine := router.Setup(router.Handlers{
		Auth:      handlers.NewAuthHandler(authService, log),
		Task:      handlers.NewTaskHandler(taskService, submissionService, log),
		DailyWork: handlers.NewDailyWorkHandler(dailyWorkService, log),
		Team:      handlers.NewTeamHandler(teamService, log),
		Health:    handlers.NewHealthHandler(db),
	}, router.Options{
		AllowOrigins:    cfg.Server.AllowOrigins,
		Authenticator:   authService,
		Limiter:         limiter,
		AuthRateLimit:   cfg.RateLimit.AuthRequests,
		RateLimitWindow: cfg.RateLimit.Window,
		Uploads:         local,
		Logger:          log,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("db_driver", cfg.DB.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped")
}
