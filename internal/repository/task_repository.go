package repository

import (
	"context"

	"github.com/yukikurage/team-task-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

func assigneeRows(taskID uint64, userIDs []uint64) []models.TaskAssignee {
	rows := make([]models.TaskAssignee, len(userIDs))
	for i, userID := range userIDs {
		rows[i] = models.TaskAssignee{
			TaskID:   taskID,
			UserID:   userID,
			Position: i,
		}
	}
	return rows
}

func orderedAssignees(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// CreateWithAssignees creates the task and its assignee links. A failure on
// any assignee row rolls the task back too.
func (r *GormTaskRepository) CreateWithAssignees(ctx context.Context, task *models.Task, assigneeIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Assignees", "Submissions", "Manager").Create(task).Error; err != nil {
			return err
		}

		rows := assigneeRows(task.ID, assigneeIDs)
		if err := tx.Omit("User").Create(&rows).Error; err != nil {
			return err
		}

		task.Assignees = rows
		return nil
	})
}

// UpdateWithAssignees saves the task and replaces the assignee set wholesale
func (r *GormTaskRepository) UpdateWithAssignees(ctx context.Context, task *models.Task, assigneeIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Assignees", "Submissions", "Manager").Save(task).Error; err != nil {
			return err
		}

		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskAssignee{}).Error; err != nil {
			return err
		}

		rows := assigneeRows(task.ID, assigneeIDs)
		if err := tx.Omit("User").Create(&rows).Error; err != nil {
			return err
		}

		task.Assignees = rows
		return nil
	})
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		if p == "Assignees" {
			query = query.Preload(p, orderedAssignees)
			continue
		}
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

func (r *GormTaskRepository) FindOwned(ctx context.Context, id, managerID uint64) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Where("id = ? AND assigned_by = ?", id, managerID).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *GormTaskRepository) IsAssignee(ctx context.Context, taskID, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TaskAssignee{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormTaskRepository) UpdateStatus(ctx context.Context, id uint64, status models.TaskStatus) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Update("status", status).Error
}

// Delete removes children before the task row so no orphans remain
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) ([]models.WorkAttachment, error) {
	var removed []models.WorkAttachment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		submissionIDs := tx.Model(&models.TaskSubmission{}).Select("id").Where("task_id = ?", id)

		if err := tx.Where("submission_id IN (?)", submissionIDs).Find(&removed).Error; err != nil {
			return err
		}
		if err := tx.Where("submission_id IN (?)", submissionIDs).Delete(&models.WorkAttachment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskSubmission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignee{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}

// ListByManager loads tasks first, then their children batched by task ID
func (r *GormTaskRepository) ListByManager(ctx context.Context, managerID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Where("assigned_by = ?", managerID).
		Preload("Assignees", orderedAssignees).
		Preload("Assignees.User").
		Preload("Submissions", func(db *gorm.DB) *gorm.DB {
			return db.Order("submitted_at DESC")
		}).
		Preload("Submissions.Submitter").
		Preload("Submissions.Attachments").
		Order("created_at DESC").Order("id DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *GormTaskRepository) ListByAssignee(ctx context.Context, userID uint64) ([]models.Task, error) {
	var tasks []models.Task
	assigned := r.db.Model(&models.TaskAssignee{}).Select("task_id").Where("user_id = ?", userID)

	err := r.db.WithContext(ctx).
		Where("id IN (?)", assigned).
		Preload("Manager").
		Preload("Assignees", orderedAssignees).
		Preload("Assignees.User").
		Preload("Submissions", "submitted_by = ?", userID).
		Preload("Submissions.Attachments").
		Order("created_at DESC").Order("id DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *GormTaskRepository) CountByAssigneeStatus(ctx context.Context, userIDs []uint64) ([]AssigneeStatusCount, error) {
	var rows []AssigneeStatusCount
	if len(userIDs) == 0 {
		return rows, nil
	}

	err := r.db.WithContext(ctx).Model(&models.TaskAssignee{}).
		Select("task_assignees.user_id AS user_id, tasks.status AS status, COUNT(*) AS count").
		Joins("JOIN tasks ON tasks.id = task_assignees.task_id").
		Where("task_assignees.user_id IN ?", userIDs).
		Group("task_assignees.user_id, tasks.status").
		Scan(&rows).Error
	return rows, err
}

func (r *GormTaskRepository) CountDistinctByStatus(ctx context.Context, userIDs []uint64) ([]StatusCount, error) {
	var rows []StatusCount
	if len(userIDs) == 0 {
		return rows, nil
	}

	db := r.db.WithContext(ctx)
	assigned := db.Model(&models.TaskAssignee{}).Select("task_id").Where("user_id IN ?", userIDs)
	err := db.Model(&models.Task{}).
		Select("status, COUNT(*) AS count").
		Where("id IN (?)", assigned).
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (r *GormTaskRepository) ListRecentByManager(ctx context.Context, managerID uint64, limit int) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Where("assigned_by = ?", managerID).
		Preload("Assignees", orderedAssignees).
		Preload("Assignees.User").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}
