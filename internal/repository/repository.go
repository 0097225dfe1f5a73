package repository

import (
	"context"

	"gorm.io/datatypes"

	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// CreateManagerWithTeam inserts the manager, inserts the team owned by
	// the manager and back-fills the manager's team_id in one transaction.
	CreateManagerWithTeam(ctx context.Context, user *models.User, team *models.Team) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Update saves all fields of a user
	Update(ctx context.Context, user *models.User) error

	// SetActive toggles the is_active flag
	SetActive(ctx context.Context, id uint64, active bool) error

	// CountTeamEmployees counts how many of ids are employees of the team
	CountTeamEmployees(ctx context.Context, teamID uint64, ids []uint64) (int64, error)

	// FindTeamEmployee finds an employee of the team by ID
	FindTeamEmployee(ctx context.Context, teamID, id uint64) (*models.User, error)

	// ListTeamEmployees lists the employees of a team ordered by name
	ListTeamEmployees(ctx context.Context, teamID uint64, activeOnly bool) ([]models.User, error)
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// FindByID finds a team by ID with its manager
	FindByID(ctx context.Context, id uint64) (*models.Team, error)

	// FindByManagerCode finds a team by its manager code
	FindByManagerCode(ctx context.Context, code string) (*models.Team, error)

	// ManagerCodeExists reports whether any team uses code
	ManagerCodeExists(ctx context.Context, code string) (bool, error)

	// CountActiveEmployees counts active employees of a team
	CountActiveEmployees(ctx context.Context, teamID uint64) (int64, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// CreateWithAssignees inserts the task and one assignee row per ID
	CreateWithAssignees(ctx context.Context, task *models.Task, assigneeIDs []uint64) error

	// UpdateWithAssignees saves the task and replaces its assignee set
	UpdateWithAssignees(ctx context.Context, task *models.Task, assigneeIDs []uint64) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// FindOwned finds a task created by the given manager
	FindOwned(ctx context.Context, id, managerID uint64) (*models.Task, error)

	// IsAssignee reports whether userID is in the task's assignee set
	IsAssignee(ctx context.Context, taskID, userID uint64) (bool, error)

	// UpdateStatus sets the status of a task
	UpdateStatus(ctx context.Context, id uint64, status models.TaskStatus) error

	// Delete removes the task with its assignees, submissions and their
	// attachments. The removed attachments are returned.
	Delete(ctx context.Context, id uint64) ([]models.WorkAttachment, error)

	// ListByManager lists tasks created by a manager, newest first
	ListByManager(ctx context.Context, managerID uint64) ([]models.Task, error)

	// ListByAssignee lists tasks assigned to a user with that user's submission
	ListByAssignee(ctx context.Context, userID uint64) ([]models.Task, error)

	// CountByAssigneeStatus counts tasks per assignee and status
	CountByAssigneeStatus(ctx context.Context, userIDs []uint64) ([]AssigneeStatusCount, error)

	// CountDistinctByStatus counts tasks with at least one of userIDs as
	// assignee, once per task, grouped by status
	CountDistinctByStatus(ctx context.Context, userIDs []uint64) ([]StatusCount, error)

	// ListRecentByManager lists the newest tasks of a manager with assignees
	ListRecentByManager(ctx context.Context, managerID uint64, limit int) ([]models.Task, error)
}

// StatusCount is one row of CountDistinctByStatus
type StatusCount struct {
	Status models.TaskStatus
	Count  int64
}

// AssigneeStatusCount is one row of CountByAssigneeStatus
type AssigneeStatusCount struct {
	UserID uint64
	Status models.TaskStatus
	Count  int64
}

// SubmissionRepository defines the interface for task submission data access
type SubmissionRepository interface {
	// Submit upserts the submission for (task, employee), stores its
	// attachments and marks the task completed in one transaction.
	Submit(ctx context.Context, submission *models.TaskSubmission, attachments []models.WorkAttachment) error

	// FindForTask finds a submission belonging to a task
	FindForTask(ctx context.Context, taskID, submissionID uint64) (*models.TaskSubmission, error)

	// Review stores the manager's decision on a submission
	Review(ctx context.Context, id uint64, status models.SubmissionStatus, feedback string) error

	// Count counts submissions for (task, employee)
	Count(ctx context.Context, taskID, userID uint64) (int64, error)
}

// DailyWorkRepository defines the interface for daily work log data access
type DailyWorkRepository interface {
	// Create inserts a log; gorm.ErrDuplicatedKey when the date is taken
	Create(ctx context.Context, log *models.DailyWorkLog) error

	// ExistsForDate reports whether the user already logged the date
	ExistsForDate(ctx context.Context, userID uint64, date datatypes.Date) (bool, error)

	// FindOwned finds a log written by the given user
	FindOwned(ctx context.Context, id, userID uint64) (*models.DailyWorkLog, error)

	// Update saves the editable fields of a log
	Update(ctx context.Context, log *models.DailyWorkLog) error

	// Delete removes a log and its attachments, returning the attachments
	Delete(ctx context.Context, id uint64) ([]models.WorkAttachment, error)

	// AddAttachments links attachments to a log
	AddAttachments(ctx context.Context, logID uint64, attachments []models.WorkAttachment) error

	// ListByUser lists a user's logs, newest date first, with attachments
	ListByUser(ctx context.Context, userID uint64) ([]models.DailyWorkLog, error)

	// ListByTeam lists the logs of a team's employees with their authors
	ListByTeam(ctx context.Context, teamID uint64, params *utils.PaginationParams) ([]models.DailyWorkLog, int64, error)

	// ListByUsers lists logs of the given users without attachments
	ListByUsers(ctx context.Context, userIDs []uint64) ([]models.DailyWorkLog, error)

	// ListRecentByTeam lists the newest logs of a team's employees
	ListRecentByTeam(ctx context.Context, teamID uint64, limit int) ([]models.DailyWorkLog, error)
}
