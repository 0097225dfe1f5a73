package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/storage"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTitleRequired          = errors.New("title is required")
	ErrAssigneesRequired      = errors.New("at least one assignee is required")
	ErrDueDateRequired        = errors.New("due date is required")
	ErrInvalidDate            = errors.New("dates must use the YYYY-MM-DD format")
	ErrInvalidPriority        = errors.New("priority must be low, medium, high or urgent")
	ErrInvalidStatus          = errors.New("status must be pending, in_progress or completed")
	ErrInvalidAssignees       = errors.New("one or more selected team members are invalid")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	storage   storage.Storage
	aiService TaskDrafter
	log       *zap.Logger
}

// NewTaskService creates a new TaskService. aiService may be nil.
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, st storage.Storage, aiService TaskDrafter, log *zap.Logger) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		storage:   st,
		aiService: aiService,
		log:       log,
	}
}

// TaskInput is used for both creating and updating a task. Updates replace
// every field; Status is only honored on update.
type TaskInput struct {
	Title       string
	Description string
	AssigneeIDs []uint64
	DueDate     string
	Priority    string
	Status      string
}

type validatedTask struct {
	title       string
	description string
	assigneeIDs []uint64
	dueDate     datatypes.Date
	priority    models.TaskPriority
	status      models.TaskStatus
}

// ParseDate accepts YYYY-MM-DD and RFC 3339 timestamps.
func ParseDate(value string) (datatypes.Date, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(constants.DateLayout, value); err == nil {
		return datatypes.Date(t), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		y, m, d := t.Date()
		return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)), nil
	}
	return datatypes.Date{}, ErrInvalidDate
}

// validateTaskInput checks the fields and the assignees. Assignee IDs are
// de-duplicated keeping first occurrences, then every remaining ID must be
// an employee of the manager's team.
func (s *TaskService) validateTaskInput(ctx context.Context, manager *models.User, input TaskInput) (*validatedTask, error) {
	v := &validatedTask{
		title:       strings.TrimSpace(input.Title),
		description: input.Description,
		priority:    models.TaskPriority(input.Priority),
		status:      models.TaskStatus(input.Status),
	}

	if v.title == "" {
		return nil, ErrTitleRequired
	}
	if len(input.AssigneeIDs) == 0 {
		return nil, ErrAssigneesRequired
	}
	if strings.TrimSpace(input.DueDate) == "" {
		return nil, ErrDueDateRequired
	}

	dueDate, err := ParseDate(input.DueDate)
	if err != nil {
		return nil, err
	}
	v.dueDate = dueDate

	if v.priority == "" {
		v.priority = models.TaskPriorityMedium
	}
	if !v.priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if v.status != "" && !v.status.Valid() {
		return nil, ErrInvalidStatus
	}

	if manager.TeamID == nil {
		return nil, ErrInvalidAssignees
	}

	// a repeated id fails the same way as an id from outside the team
	v.assigneeIDs = input.AssigneeIDs
	if len(uniqueUint64(v.assigneeIDs)) != len(v.assigneeIDs) {
		return nil, ErrInvalidAssignees
	}
	count, err := s.userRepo.CountTeamEmployees(ctx, *manager.TeamID, v.assigneeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to verify assignees: %w", err)
	}
	if int(count) != len(v.assigneeIDs) {
		return nil, ErrInvalidAssignees
	}

	return v, nil
}

// CreateTask creates a pending task assigned to one or more employees
func (s *TaskService) CreateTask(ctx context.Context, manager *models.User, input TaskInput) (*models.Task, error) {
	v, err := s.validateTaskInput(ctx, manager, input)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       v.title,
		Description: v.description,
		AssignedBy:  manager.ID,
		DueDate:     v.dueDate,
		Priority:    v.priority,
		Status:      models.TaskStatusPending,
	}

	if err := s.taskRepo.CreateWithAssignees(ctx, task, v.assigneeIDs); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.log.Info("task created",
		zap.Uint64("task_id", task.ID),
		zap.Uint64("manager_id", manager.ID),
		zap.Int("assignees", len(v.assigneeIDs)),
	)

	return s.taskRepo.FindByID(ctx, task.ID, "Assignees", "Assignees.User")
}

// UpdateTask replaces a task's fields and assignee set
func (s *TaskService) UpdateTask(ctx context.Context, manager *models.User, taskID uint64, input TaskInput) (*models.Task, error) {
	task, err := s.findOwned(ctx, manager, taskID)
	if err != nil {
		return nil, err
	}

	v, err := s.validateTaskInput(ctx, manager, input)
	if err != nil {
		return nil, err
	}

	task.Title = v.title
	task.Description = v.description
	task.DueDate = v.dueDate
	task.Priority = v.priority
	if v.status != "" {
		task.Status = v.status
	}

	if err := s.taskRepo.UpdateWithAssignees(ctx, task, v.assigneeIDs); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.log.Info("task updated", zap.Uint64("task_id", task.ID), zap.Uint64("manager_id", manager.ID))

	return s.taskRepo.FindByID(ctx, task.ID, "Assignees", "Assignees.User")
}

// DeleteTask deletes a task with everything hanging off it
func (s *TaskService) DeleteTask(ctx context.Context, manager *models.User, taskID uint64) error {
	if _, err := s.findOwned(ctx, manager, taskID); err != nil {
		return err
	}

	removed, err := s.taskRepo.Delete(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	removeAttachmentFiles(ctx, s.storage, s.log, removed)
	s.log.Info("task deleted", zap.Uint64("task_id", taskID), zap.Uint64("manager_id", manager.ID))
	return nil
}

// UpdateStatus lets any assignee move the task between statuses
func (s *TaskService) UpdateStatus(ctx context.Context, employee *models.User, taskID uint64, status string) error {
	st := models.TaskStatus(status)
	if !st.Valid() {
		return ErrInvalidStatus
	}

	assigned, err := s.taskRepo.IsAssignee(ctx, taskID, employee.ID)
	if err != nil {
		return fmt.Errorf("failed to check assignment: %w", err)
	}
	if !assigned {
		return ErrTaskNotFound
	}

	if err := s.taskRepo.UpdateStatus(ctx, taskID, st); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	s.log.Info("task status updated",
		zap.Uint64("task_id", taskID),
		zap.Uint64("user_id", employee.ID),
		zap.String("status", status),
	)
	return nil
}

// ListManagerTasks returns the manager's tasks with assignees and submissions
func (s *TaskService) ListManagerTasks(ctx context.Context, manager *models.User) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByManager(ctx, manager.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListEmployeeTasks returns tasks assigned to the employee with the
// employee's own submission
func (s *TaskService) ListEmployeeTasks(ctx context.Context, employee *models.User) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByAssignee(ctx, employee.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListTeamMembers returns the active employees a manager can assign
func (s *TaskService) ListTeamMembers(ctx context.Context, manager *models.User) ([]models.User, error) {
	if manager.TeamID == nil {
		return []models.User{}, nil
	}
	users, err := s.userRepo.ListTeamEmployees(ctx, *manager.TeamID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	return users, nil
}

// GenerateTasks uses AI to draft tasks from free text. Nothing is stored.
func (s *TaskService) GenerateTasks(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" {
			continue
		}

		if aiTask.DueDate != nil {
			due, err := ParseDate(*aiTask.DueDate)
			if err != nil || time.Time(due).Before(cutoff) {
				aiTask.DueDate = nil
			} else {
				formatted := time.Time(due).Format(constants.DateLayout)
				aiTask.DueDate = &formatted
			}
		}

		if !models.TaskPriority(aiTask.Priority).Valid() {
			aiTask.Priority = string(models.TaskPriorityMedium)
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

func (s *TaskService) findOwned(ctx context.Context, manager *models.User, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindOwned(ctx, taskID, manager.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// removeAttachmentFiles deletes stored files after their rows are gone.
// Failures are logged; the rows are already committed.
func removeAttachmentFiles(ctx context.Context, st storage.Storage, log *zap.Logger, attachments []models.WorkAttachment) {
	for _, a := range attachments {
		if err := st.Delete(ctx, a.FilePath); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Warn("failed to remove attachment file", zap.String("path", a.FilePath), zap.Error(err))
		}
	}
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
