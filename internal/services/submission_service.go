package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/storage"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrInvalidReview      = errors.New("review status must be approved or rejected")
)

// SubmissionService records proof of completion for tasks
type SubmissionService struct {
	taskRepo       repository.TaskRepository
	submissionRepo repository.SubmissionRepository
	storage        storage.Storage
	log            *zap.Logger
}

func NewSubmissionService(taskRepo repository.TaskRepository, submissionRepo repository.SubmissionRepository, st storage.Storage, log *zap.Logger) *SubmissionService {
	return &SubmissionService{
		taskRepo:       taskRepo,
		submissionRepo: submissionRepo,
		storage:        st,
		log:            log,
	}
}

func attachmentsFrom(objects []storage.Object) []models.WorkAttachment {
	attachments := make([]models.WorkAttachment, len(objects))
	for i, obj := range objects {
		attachments[i] = models.WorkAttachment{
			FileName: obj.Name,
			FilePath: obj.Path,
			FileType: obj.ContentType,
			FileSize: obj.Size,
		}
	}
	return attachments
}

// SubmitTask stores the uploaded files, then upserts the employee's
// submission and completes the task in one transaction. Files are removed
// again if the transaction fails.
func (s *SubmissionService) SubmitTask(ctx context.Context, employee *models.User, taskID uint64, text string, uploads []storage.Upload) (*models.TaskSubmission, error) {
	assigned, err := s.taskRepo.IsAssignee(ctx, taskID, employee.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check assignment: %w", err)
	}
	if !assigned {
		return nil, ErrTaskNotFound
	}

	if err := storage.Validate(uploads); err != nil {
		return nil, err
	}

	objects, err := storage.SaveAll(ctx, s.storage, constants.UploadScopeTasks, uploads)
	if err != nil {
		return nil, err
	}

	submission := &models.TaskSubmission{
		TaskID:         taskID,
		SubmittedBy:    employee.ID,
		SubmissionText: text,
	}
	if err := s.submissionRepo.Submit(ctx, submission, attachmentsFrom(objects)); err != nil {
		storage.RemoveAll(ctx, s.storage, objects)
		return nil, fmt.Errorf("failed to submit task: %w", err)
	}

	s.log.Info("task submitted",
		zap.Uint64("task_id", taskID),
		zap.Uint64("submission_id", submission.ID),
		zap.Uint64("user_id", employee.ID),
		zap.Int("files", len(objects)),
	)
	return submission, nil
}

// ReviewSubmission records the manager's approval or rejection
func (s *SubmissionService) ReviewSubmission(ctx context.Context, manager *models.User, taskID, submissionID uint64, status, feedback string) (*models.TaskSubmission, error) {
	st := models.SubmissionStatus(status)
	if st != models.SubmissionStatusApproved && st != models.SubmissionStatusRejected {
		return nil, ErrInvalidReview
	}

	if _, err := s.taskRepo.FindOwned(ctx, taskID, manager.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	submission, err := s.submissionRepo.FindForTask(ctx, taskID, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to find submission: %w", err)
	}

	if err := s.submissionRepo.Review(ctx, submission.ID, st, feedback); err != nil {
		return nil, fmt.Errorf("failed to review submission: %w", err)
	}
	submission.Status = st
	submission.ManagerFeedback = feedback

	s.log.Info("submission reviewed",
		zap.Uint64("submission_id", submission.ID),
		zap.String("status", status),
	)
	return submission, nil
}
