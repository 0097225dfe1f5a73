package repository

import (
	"context"
	"time"

	"github.com/yukikurage/team-task-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSubmissionRepository is a GORM implementation of SubmissionRepository
type GormSubmissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository creates a new SubmissionRepository
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &GormSubmissionRepository{db: db}
}

// Submit relies on the unique index on (task_id, submitted_by): a second
// submission updates the existing row instead of inserting another.
func (r *GormSubmissionRepository) Submit(ctx context.Context, submission *models.TaskSubmission, attachments []models.WorkAttachment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		submission.Status = models.SubmissionStatusSubmitted
		submission.SubmittedAt = now
		submission.UpdatedAt = now

		updates := []string{"submission_text", "status", "submitted_at", "updated_at"}
		if len(attachments) > 0 {
			submission.FileName = attachments[0].FileName
			submission.FilePath = attachments[0].FilePath
			updates = append(updates, "file_name", "file_path")
		}

		err := tx.Omit("Submitter", "Attachments").
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "task_id"}, {Name: "submitted_by"}},
				DoUpdates: clause.AssignmentColumns(updates),
			}).
			Create(submission).Error
		if err != nil {
			return err
		}

		// the insert ID is not reliable when the row was updated
		var stored models.TaskSubmission
		if err := tx.Where("task_id = ? AND submitted_by = ?", submission.TaskID, submission.SubmittedBy).
			First(&stored).Error; err != nil {
			return err
		}
		*submission = stored

		if len(attachments) > 0 {
			for i := range attachments {
				attachments[i].SubmissionID = &stored.ID
				attachments[i].DailyWorkID = nil
			}
			if err := tx.Create(&attachments).Error; err != nil {
				return err
			}
			submission.Attachments = attachments
		}

		return tx.Model(&models.Task{}).
			Where("id = ?", submission.TaskID).
			Update("status", models.TaskStatusCompleted).Error
	})
}

func (r *GormSubmissionRepository) FindForTask(ctx context.Context, taskID, submissionID uint64) (*models.TaskSubmission, error) {
	var submission models.TaskSubmission
	err := r.db.WithContext(ctx).
		Where("id = ? AND task_id = ?", submissionID, taskID).
		Preload("Submitter").
		Preload("Attachments").
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *GormSubmissionRepository) Review(ctx context.Context, id uint64, status models.SubmissionStatus, feedback string) error {
	return r.db.WithContext(ctx).Model(&models.TaskSubmission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           status,
			"manager_feedback": feedback,
		}).Error
}

func (r *GormSubmissionRepository) Count(ctx context.Context, taskID, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TaskSubmission{}).
		Where("task_id = ? AND submitted_by = ?", taskID, userID).
		Count(&count).Error
	return count, err
}
