package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/team-task-api/internal/config"
	"github.com/yukikurage/team-task-api/internal/database"
	"github.com/yukikurage/team-task-api/internal/models"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	return db, mock
}

func setupSQLiteDB(t *testing.T) *gorm.DB {
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
	return db
}

func dueDate() datatypes.Date {
	return datatypes.Date(time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC))
}

func TestCreateWithAssignees_RollsBackOnAssigneeFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `tasks`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `task_assignees`").WillReturnError(errors.New("foreign key violation"))
	mock.ExpectRollback()

	task := &models.Task{Title: "Write report", AssignedBy: 1, DueDate: dueDate()}
	err := repo.CreateWithAssignees(context.Background(), task, []uint64{2, 3})
	assert.Error(t, err)
	assert.Empty(t, task.Assignees)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateManagerWithTeam_RollsBackOnTeamFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO `teams`").WillReturnError(gorm.ErrDuplicatedKey)
	mock.ExpectRollback()

	user := &models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x", Role: models.RoleManager, IsActive: true}
	team := &models.Team{TeamName: "Alice's Team", ManagerCode: "MGR-AAAAAAAA"}
	err := repo.CreateManagerWithTeam(context.Background(), user, team)

	assert.ErrorIs(t, err, ErrCreateTeam)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.Nil(t, user.TeamID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateManagerWithTeam_LinksTeam(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x", Role: models.RoleManager, IsActive: true}
	team := &models.Team{TeamName: "Alice's Team", ManagerCode: "MGR-AAAAAAAA"}
	require.NoError(t, repo.CreateManagerWithTeam(ctx, user, team))
	require.NotNil(t, user.TeamID)
	assert.Equal(t, team.ID, *user.TeamID)
	assert.Equal(t, user.ID, team.ManagerID)

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.TeamID)
	assert.Equal(t, team.ID, *stored.TeamID)

	// the code is unique across teams
	other := &models.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "x", Role: models.RoleManager, IsActive: true}
	err = repo.CreateManagerWithTeam(ctx, other, &models.Team{TeamName: "Bob's Team", ManagerCode: "MGR-AAAAAAAA"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(1), users)
}

type taskRepoFixture struct {
	db        *gorm.DB
	tasks     TaskRepository
	managerID uint64
	eve       uint64
	frank     uint64
}

func newTaskRepoFixture(t *testing.T) *taskRepoFixture {
	t.Helper()
	db := setupSQLiteDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	manager := &models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x", Role: models.RoleManager, IsActive: true}
	team := &models.Team{TeamName: "Alice's Team", ManagerCode: "MGR-AAAAAAAA"}
	require.NoError(t, users.CreateManagerWithTeam(ctx, manager, team))

	employee := func(name, email string) uint64 {
		u := &models.User{Name: name, Email: email, PasswordHash: "x", Role: models.RoleEmployee, TeamID: &team.ID, IsActive: true}
		require.NoError(t, users.Create(ctx, u))
		return u.ID
	}

	return &taskRepoFixture{
		db:        db,
		tasks:     NewTaskRepository(db),
		managerID: manager.ID,
		eve:       employee("Eve", "eve@example.com"),
		frank:     employee("Frank", "frank@example.com"),
	}
}

func (f *taskRepoFixture) create(t *testing.T, title string, assignees ...uint64) *models.Task {
	t.Helper()
	task := &models.Task{
		Title:      title,
		AssignedBy: f.managerID,
		DueDate:    dueDate(),
		Priority:   models.TaskPriorityMedium,
		Status:     models.TaskStatusPending,
	}
	require.NoError(t, f.tasks.CreateWithAssignees(context.Background(), task, assignees))
	return task
}

func TestTaskRepository_AssigneeOrder(t *testing.T) {
	f := newTaskRepoFixture(t)
	ctx := context.Background()
	task := f.create(t, "Pair on it", f.frank, f.eve)

	loaded, err := f.tasks.FindByID(ctx, task.ID, "Assignees")
	require.NoError(t, err)
	require.Len(t, loaded.Assignees, 2)
	assert.Equal(t, f.frank, *loaded.PrimaryAssigneeID())

	require.NoError(t, f.tasks.UpdateWithAssignees(ctx, loaded, []uint64{f.eve}))
	reloaded, err := f.tasks.FindByID(ctx, task.ID, "Assignees")
	require.NoError(t, err)
	require.Len(t, reloaded.Assignees, 1)
	assert.Equal(t, f.eve, *reloaded.PrimaryAssigneeID())

	ok, err := f.tasks.IsAssignee(ctx, task.ID, f.frank)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTaskRepository_CountsByStatus(t *testing.T) {
	f := newTaskRepoFixture(t)
	ctx := context.Background()

	shared := f.create(t, "Shared", f.eve, f.frank)
	f.create(t, "Solo", f.eve)
	require.NoError(t, f.tasks.UpdateStatus(ctx, shared.ID, models.TaskStatusCompleted))

	distinct, err := f.tasks.CountDistinctByStatus(ctx, []uint64{f.eve, f.frank})
	require.NoError(t, err)
	byStatus := map[models.TaskStatus]int64{}
	for _, row := range distinct {
		byStatus[row.Status] = row.Count
	}
	assert.Equal(t, map[models.TaskStatus]int64{
		models.TaskStatusCompleted: 1,
		models.TaskStatusPending:   1,
	}, byStatus)

	perAssignee, err := f.tasks.CountByAssigneeStatus(ctx, []uint64{f.eve, f.frank})
	require.NoError(t, err)
	assert.Len(t, perAssignee, 3)

	empty, err := f.tasks.CountDistinctByStatus(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTaskRepository_DeleteRemovesChildren(t *testing.T) {
	f := newTaskRepoFixture(t)
	ctx := context.Background()
	task := f.create(t, "Doomed", f.eve)

	submission := &models.TaskSubmission{TaskID: task.ID, SubmittedBy: f.eve, SubmissionText: "done"}
	attachments := []models.WorkAttachment{{
		FileName: "notes.txt", FilePath: "/uploads/tasks/notes.txt", FileType: "text/plain", FileSize: 4,
	}}
	require.NoError(t, NewSubmissionRepository(f.db).Submit(ctx, submission, attachments))

	removed, err := f.tasks.Delete(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "/uploads/tasks/notes.txt", removed[0].FilePath)

	for _, model := range []interface{}{&models.Task{}, &models.TaskAssignee{}, &models.TaskSubmission{}, &models.WorkAttachment{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}

	_, err = f.tasks.FindOwned(ctx, task.ID, f.managerID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
