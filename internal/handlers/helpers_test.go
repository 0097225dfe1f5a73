package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yukikurage/team-task-api/internal/config"
	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/database"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/storage"
	"github.com/yukikurage/team-task-api/internal/token"
	"github.com/yukikurage/team-task-api/internal/utils"
)

// envelope mirrors both forms of the response envelope
type envelope struct {
	Success    bool                      `json:"success"`
	Message    string                    `json:"message"`
	Code       string                    `json:"code"`
	Data       json.RawMessage           `json:"data"`
	Pagination *utils.PaginationResponse `json:"pagination"`
}

type handlerTestEnv struct {
	db     *gorm.DB
	fs     afero.Fs
	auth   *services.AuthService
	engine *gin.Engine
}

func setupHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"}, log)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, log))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	fs := afero.NewMemMapFs()
	store, err := storage.NewLocalStorage(fs, "uploads", "/uploads",
		constants.UploadScopeTasks, constants.UploadScopeDailyWork)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	dailyWorkRepo := repository.NewDailyWorkRepository(db)

	authService := services.NewAuthService(userRepo, teamRepo, token.NewManager("handler-test-secret-0123", time.Hour), log).
		WithBcryptCost(bcrypt.MinCost)
	taskService := services.NewTaskService(taskRepo, userRepo, store, nil, log)
	submissionService := services.NewSubmissionService(taskRepo, repository.NewSubmissionRepository(db), store, log)

	authHandler := NewAuthHandler(authService, log)
	taskHandler := NewTaskHandler(taskService, submissionService, log)
	dailyWorkHandler := NewDailyWorkHandler(services.NewDailyWorkService(dailyWorkRepo, store, log), log)
	teamHandler := NewTeamHandler(services.NewTeamService(userRepo, teamRepo, taskRepo, dailyWorkRepo, log), log)

	r := gin.New()
	requireAuth := middleware.RequireAuth(authService, log)
	manager := middleware.RequireManager()
	employee := middleware.RequireEmployee()

	r.POST("/api/auth/register/manager", authHandler.RegisterManager)
	r.POST("/api/auth/register/employee", authHandler.RegisterEmployee)
	r.POST("/api/auth/login", authHandler.Login)
	r.GET("/api/auth/me", requireAuth, authHandler.GetCurrentUser)
	r.PUT("/api/auth/me", requireAuth, authHandler.UpdateCurrentUser)

	r.GET("/api/tasks/manager", requireAuth, manager, taskHandler.ListManagerTasks)
	r.GET("/api/tasks/employee", requireAuth, employee, taskHandler.ListEmployeeTasks)
	r.GET("/api/tasks/team-members", requireAuth, manager, taskHandler.ListTeamMembers)
	r.POST("/api/tasks", requireAuth, manager, taskHandler.CreateTask)
	r.POST("/api/tasks/generate", requireAuth, manager, taskHandler.GenerateTasks)
	r.PUT("/api/tasks/:id", requireAuth, manager, taskHandler.UpdateTask)
	r.DELETE("/api/tasks/:id", requireAuth, manager, taskHandler.DeleteTask)
	r.PATCH("/api/tasks/:id/status", requireAuth, employee, taskHandler.UpdateStatus)
	r.POST("/api/tasks/:id/submit", requireAuth, employee, taskHandler.SubmitTask)
	r.PATCH("/api/tasks/:id/submissions/:submissionId/review", requireAuth, manager, taskHandler.ReviewSubmission)

	r.GET("/api/daily-work/employee", requireAuth, employee, dailyWorkHandler.ListMine)
	r.GET("/api/daily-work/team", requireAuth, manager, dailyWorkHandler.ListTeam)
	r.POST("/api/daily-work", requireAuth, employee, dailyWorkHandler.Create)
	r.PUT("/api/daily-work/:id", requireAuth, employee, dailyWorkHandler.Update)

	r.GET("/api/team/members", requireAuth, manager, teamHandler.Members)
	r.PATCH("/api/team/members/:id/status", requireAuth, manager, teamHandler.SetMemberStatus)
	r.GET("/api/team/info", requireAuth, teamHandler.Info)

	return &handlerTestEnv{db: db, fs: fs, auth: authService, engine: r}
}

func (e *handlerTestEnv) request(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(req, bearer)
}

func (e *handlerTestEnv) send(req *http.Request, bearer string) *httptest.ResponseRecorder {
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

// account is a registered user as the API reports it
type account struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	TeamID      uint64 `json:"team_id"`
	ManagerCode string `json:"manager_code"`
	token       string
}

func (e *handlerTestEnv) register(t *testing.T, path string, body map[string]string) account {
	t.Helper()
	w := e.request(t, http.MethodPost, path, "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		User  account `json:"user"`
		Token string  `json:"token"`
	}
	decodeData(t, w, &resp)
	resp.User.token = resp.Token
	return resp.User
}

func (e *handlerTestEnv) registerManager(t *testing.T, name, email string) account {
	t.Helper()
	return e.register(t, "/api/auth/register/manager", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
}

func (e *handlerTestEnv) registerEmployee(t *testing.T, name, email, code string) account {
	t.Helper()
	return e.register(t, "/api/auth/register/employee", map[string]string{
		"name": name, "email": email, "password": "secret123", "managerCode": code,
	})
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	env := decodeEnvelope(t, w)
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}
