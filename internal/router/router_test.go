package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yukikurage/team-task-api/internal/config"
	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/database"
	"github.com/yukikurage/team-task-api/internal/handlers"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/storage"
	"github.com/yukikurage/team-task-api/internal/token"
)

type memoryLimiter struct {
	hits map[string]int
}

func (l *memoryLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	l.hits[key]++
	return l.hits[key] <= limit, nil
}

type apiResponse struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Code       string          `json:"code"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Total      int64 `json:"total"`
		TotalPages int   `json:"total_pages"`
	} `json:"pagination"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T, limiter middleware.RateLimiter, authLimit int) *testServer {
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

	store, err := storage.NewLocalStorage(afero.NewMemMapFs(), "uploads", "/uploads",
		constants.UploadScopeTasks, constants.UploadScopeDailyWork)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	dailyWorkRepo := repository.NewDailyWorkRepository(db)

	authService := services.NewAuthService(userRepo, teamRepo, token.NewManager("router-test-secret-012345", time.Hour), log).
		WithBcryptCost(bcrypt.MinCost)

	h := Handlers{
		Auth: handlers.NewAuthHandler(authService, log),
		Task: handlers.NewTaskHandler(
			services.NewTaskService(taskRepo, userRepo, store, nil, log),
			services.NewSubmissionService(taskRepo, repository.NewSubmissionRepository(db), store, log),
			log,
		),
		DailyWork: handlers.NewDailyWorkHandler(services.NewDailyWorkService(dailyWorkRepo, store, log), log),
		Team:      handlers.NewTeamHandler(services.NewTeamService(userRepo, teamRepo, taskRepo, dailyWorkRepo, log), log),
		Health:    handlers.NewHealthHandler(db),
	}

	engine := Setup(h, Options{
		AllowOrigins:    []string{"http://localhost:3000"},
		Authenticator:   authService,
		Limiter:         limiter,
		AuthRateLimit:   authLimit,
		RateLimitWindow: time.Minute,
		Uploads:         store,
		Logger:          log,
	})
	return &testServer{t: t, engine: engine}
}

func (s *testServer) do(req *http.Request, bearer string) *httptest.ResponseRecorder {
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) call(method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, bearer)
}

func (s *testServer) decode(w *httptest.ResponseRecorder, out interface{}) apiResponse {
	s.t.Helper()
	var resp apiResponse
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	if out != nil {
		require.True(s.t, resp.Success, w.Body.String())
		require.NoError(s.t, json.Unmarshal(resp.Data, out))
	}
	return resp
}

type session struct {
	User struct {
		ID          uint64 `json:"id"`
		ManagerCode string `json:"manager_code"`
	} `json:"user"`
	Token string `json:"token"`
}

func (s *testServer) register(path string, body map[string]string) session {
	s.t.Helper()
	w := s.call(http.MethodPost, path, "", body)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var out session
	s.decode(w, &out)
	return out
}

func TestHealthAndNoRoute(t *testing.T) {
	s := newTestServer(t, nil, 0)

	for _, path := range []string{"/health", "/api/health"} {
		w := s.call(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Team Task API is running", s.decode(w, nil).Message)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	}

	w := s.call(http.MethodGet, "/api/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := s.decode(w, nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "Route not found", resp.Message)
}

func TestTeamWorkflow(t *testing.T) {
	s := newTestServer(t, nil, 0)

	manager := s.register("/api/auth/register/manager", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret123",
	})
	employee := s.register("/api/auth/register/employee", map[string]string{
		"name": "Eve", "email": "eve@example.com", "password": "secret123", "managerCode": manager.User.ManagerCode,
	})

	w := s.call(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "eve@example.com", "password": "secret123", "role": "employee",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// tasks
	w = s.call(http.MethodPost, "/api/tasks", manager.Token, map[string]interface{}{
		"title": "Write report", "assigned_to": employee.User.ID, "due_date": "2030-04-01", "priority": "high",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var task struct {
		ID uint64 `json:"id"`
	}
	s.decode(w, &task)

	w = s.call(http.MethodPost, "/api/tasks", employee.Token, map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.call(http.MethodPatch, fmt.Sprintf("/api/tasks/%d/status", task.ID), employee.Token, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("submission_text", "report attached"))
	part, err := mw.CreateFormFile("files", "report.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("quarterly numbers"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/tasks/%d/submit", task.ID), body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = s.do(req, employee.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.call(http.MethodGet, "/api/tasks/employee", employee.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []struct {
		Status     string `json:"status"`
		Submission struct {
			Attachments []struct {
				FilePath string `json:"file_path"`
			} `json:"attachments"`
		} `json:"submission"`
	}
	s.decode(w, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, "completed", mine[0].Status)
	require.Len(t, mine[0].Submission.Attachments, 1)

	filePath := mine[0].Submission.Attachments[0].FilePath
	require.True(t, strings.HasPrefix(filePath, "/uploads/tasks/"), filePath)
	w = s.call(http.MethodGet, filePath, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "quarterly numbers", w.Body.String())
	assert.Equal(t, "attachment", w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "sandbox")

	// daily work
	w = s.call(http.MethodPost, "/api/daily-work", employee.Token, map[string]interface{}{
		"work_date": "2030-03-30", "work_description": "drafted report", "hours_worked": 7.5, "project_name": "Apollo",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.call(http.MethodPost, "/api/daily-work", employee.Token, map[string]interface{}{
		"work_date": "2030-03-30", "work_description": "again", "hours_worked": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.call(http.MethodGet, "/api/daily-work/stats", employee.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		TotalEntries int64  `json:"total_entries"`
		TotalHours   string `json:"total_hours"`
	}
	s.decode(w, &stats)
	assert.Equal(t, int64(1), stats.TotalEntries)
	assert.Equal(t, "7.5", stats.TotalHours)

	w = s.call(http.MethodGet, "/api/daily-work/team?page=1&limit=10", manager.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []struct {
		EmployeeName string `json:"employee_name"`
	}
	resp := s.decode(w, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "Eve", entries[0].EmployeeName)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, int64(1), resp.Pagination.Total)
	assert.Equal(t, 1, resp.Pagination.TotalPages)

	w = s.call(http.MethodGet, "/api/daily-work/team/export", manager.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "daily-work-")
	assert.NotZero(t, w.Body.Len())

	w = s.call(http.MethodGet, "/api/daily-work/team", employee.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// team views
	w = s.call(http.MethodGet, "/api/team/stats", manager.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var teamStats struct {
		Stats struct {
			TotalMembers   int64 `json:"total_members"`
			TotalTasks     int64 `json:"total_tasks"`
			CompletedTasks int64 `json:"completed_tasks"`
		} `json:"stats"`
		RecentActivity []json.RawMessage `json:"recent_activity"`
	}
	s.decode(w, &teamStats)
	assert.Equal(t, int64(1), teamStats.Stats.TotalMembers)
	assert.Equal(t, int64(1), teamStats.Stats.TotalTasks)
	assert.Equal(t, int64(1), teamStats.Stats.CompletedTasks)
	assert.Len(t, teamStats.RecentActivity, 2)

	w = s.call(http.MethodGet, "/api/team/performance", manager.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var performance []struct {
		Name           string `json:"name"`
		CompletionRate string `json:"completion_rate"`
	}
	s.decode(w, &performance)
	require.Len(t, performance, 1)
	assert.Equal(t, "Eve", performance[0].Name)
	assert.Equal(t, "100", performance[0].CompletionRate)

	w = s.call(http.MethodGet, "/api/team/info", employee.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info struct {
		ManagerCode string `json:"manager_code"`
		MemberCount int64  `json:"member_count"`
	}
	s.decode(w, &info)
	assert.Equal(t, manager.User.ManagerCode, info.ManagerCode)
	assert.Equal(t, int64(1), info.MemberCount)

	w = s.call(http.MethodPatch, fmt.Sprintf("/api/team/members/%d/status", employee.User.ID), manager.Token, map[string]bool{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Team member deactivated successfully", s.decode(w, nil).Message)

	w = s.call(http.MethodGet, "/api/auth/me", employee.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadsAreServedAsDownloads(t *testing.T) {
	s := newTestServer(t, nil, 0)
	manager := s.register("/api/auth/register/manager", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret123",
	})
	employee := s.register("/api/auth/register/employee", map[string]string{
		"name": "Eve", "email": "eve@example.com", "password": "secret123", "managerCode": manager.User.ManagerCode,
	})

	w := s.call(http.MethodPost, "/api/daily-work", employee.Token, map[string]interface{}{
		"work_date": "2030-03-30", "work_description": "mockups", "hours_worked": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var entry struct {
		ID uint64 `json:"id"`
	}
	s.decode(w, &entry)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("files", "page.html")
	require.NoError(t, err)
	_, err = part.Write([]byte("<html><script>alert(document.cookie)</script></html>"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/daily-work/%d/attachments", entry.ID), body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = s.do(req, employee.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var attachments []struct {
		FilePath string `json:"file_path"`
	}
	s.decode(w, &attachments)
	require.Len(t, attachments, 1)
	require.True(t, strings.HasSuffix(attachments[0].FilePath, ".html"), attachments[0].FilePath)

	w = s.call(http.MethodGet, attachments[0].FilePath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "default-src 'none'; sandbox", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	limiter := &memoryLimiter{hits: make(map[string]int)}
	s := newTestServer(t, limiter, 2)

	login := map[string]string{"email": "nobody@example.com", "password": "secret123", "role": "manager"}
	assert.Equal(t, http.StatusUnauthorized, s.call(http.MethodPost, "/api/auth/login", "", login).Code)
	assert.Equal(t, http.StatusUnauthorized, s.call(http.MethodPost, "/api/auth/login", "", login).Code)

	w := s.call(http.MethodPost, "/api/auth/login", "", login)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", s.decode(w, nil).Code)

	// registration is counted separately from login
	w = s.call(http.MethodPost, "/api/auth/register/manager", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// only the public auth routes are limited
	w = s.call(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
