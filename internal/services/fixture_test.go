package services

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yukikurage/team-task-api/internal/config"
	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/database"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/storage"
	"github.com/yukikurage/team-task-api/internal/token"
)

const testPassword = "secret123"

// fixture wires every service against an in-memory sqlite database and an
// in-memory upload directory
type fixture struct {
	db     *gorm.DB
	fs     afero.Fs
	tokens *token.Manager

	userRepo       repository.UserRepository
	teamRepo       repository.TeamRepository
	taskRepo       repository.TaskRepository
	submissionRepo repository.SubmissionRepository
	dailyWorkRepo  repository.DailyWorkRepository

	auth        *AuthService
	tasks       *TaskService
	submissions *SubmissionService
	dailyWork   *DailyWorkService
	team        *TeamService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

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

	f := &fixture{
		db:             db,
		fs:             fs,
		tokens:         token.NewManager("fixture-secret-0123456789", time.Hour),
		userRepo:       repository.NewUserRepository(db),
		teamRepo:       repository.NewTeamRepository(db),
		taskRepo:       repository.NewTaskRepository(db),
		submissionRepo: repository.NewSubmissionRepository(db),
		dailyWorkRepo:  repository.NewDailyWorkRepository(db),
	}

	f.auth = NewAuthService(f.userRepo, f.teamRepo, f.tokens, log).WithBcryptCost(bcrypt.MinCost)
	f.tasks = NewTaskService(f.taskRepo, f.userRepo, store, nil, log)
	f.submissions = NewSubmissionService(f.taskRepo, f.submissionRepo, store, log)
	f.dailyWork = NewDailyWorkService(f.dailyWorkRepo, store, log)
	f.team = NewTeamService(f.userRepo, f.teamRepo, f.taskRepo, f.dailyWorkRepo, log)
	return f
}

// manager registers a manager and returns the user and the team's code
func (f *fixture) manager(t *testing.T, name string) (*models.User, string) {
	t.Helper()
	result, err := f.auth.RegisterManager(context.Background(), RegisterManagerInput{
		Name:     name,
		Email:    strings.ToLower(name) + "@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	return result.User, result.Team.ManagerCode
}

func (f *fixture) employee(t *testing.T, name, code string) *models.User {
	t.Helper()
	result, err := f.auth.RegisterEmployee(context.Background(), RegisterEmployeeInput{
		Name:        name,
		Email:       strings.ToLower(name) + "@example.com",
		Password:    testPassword,
		ManagerCode: code,
	})
	require.NoError(t, err)
	return result.User
}

func (f *fixture) task(t *testing.T, manager *models.User, title string, assignees ...uint64) *models.Task {
	t.Helper()
	task, err := f.tasks.CreateTask(context.Background(), manager, TaskInput{
		Title:       title,
		AssigneeIDs: assignees,
		DueDate:     "2030-01-15",
	})
	require.NoError(t, err)
	return task
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) fileExists(t *testing.T, publicPath string) bool {
	t.Helper()
	ok, err := afero.Exists(f.fs, "uploads"+strings.TrimPrefix(publicPath, "/uploads"))
	require.NoError(t, err)
	return ok
}

func textUpload(name, content string) storage.Upload {
	return storage.Upload{
		Name:        name,
		ContentType: "text/plain",
		Size:        int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte(content))), nil
		},
	}
}
