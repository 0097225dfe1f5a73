package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/storage"
	"github.com/yukikurage/team-task-api/internal/utils"
)

var (
	ErrEntryNotFound      = errors.New("daily work entry not found")
	ErrDuplicateEntry     = errors.New("a daily work entry already exists for this date")
	ErrWorkDateRequired   = errors.New("work date and description are required")
	ErrInvalidHoursWorked = fmt.Errorf("hours worked must be between 0 and %d", constants.MaxDailyHours)
	ErrNoFilesUploaded    = errors.New("no files uploaded")
	maxDailyHours         = decimal.NewFromInt(constants.MaxDailyHours)
)

// DailyWorkService manages per-day work logs
type DailyWorkService struct {
	repo    repository.DailyWorkRepository
	storage storage.Storage
	log     *zap.Logger
}

func NewDailyWorkService(repo repository.DailyWorkRepository, st storage.Storage, log *zap.Logger) *DailyWorkService {
	return &DailyWorkService{
		repo:    repo,
		storage: st,
		log:     log,
	}
}

type DailyWorkInput struct {
	WorkDate        string
	WorkDescription string
	HoursWorked     decimal.Decimal
	ProjectName     string
	WorkCategory    string
	MoodRating      string
	ChallengesFaced string
	Achievements    string
}

// DailyWorkStats summarizes an employee's logs
type DailyWorkStats struct {
	TotalEntries   int64           `json:"total_entries"`
	TotalHours     decimal.Decimal `json:"total_hours"`
	AvgHoursPerDay decimal.Decimal `json:"avg_hours_per_day"`
	ProjectsWorked int             `json:"projects_worked"`
}

func (s *DailyWorkService) applyInput(log *models.DailyWorkLog, input DailyWorkInput) error {
	description := strings.TrimSpace(input.WorkDescription)
	if description == "" {
		return ErrWorkDateRequired
	}
	if input.HoursWorked.IsNegative() || input.HoursWorked.GreaterThan(maxDailyHours) {
		return ErrInvalidHoursWorked
	}

	mood := strings.TrimSpace(input.MoodRating)
	if mood == "" {
		mood = constants.DefaultMoodRating
	}

	log.WorkDescription = description
	log.HoursWorked = input.HoursWorked.Round(2)
	log.ProjectName = strings.TrimSpace(input.ProjectName)
	log.WorkCategory = strings.TrimSpace(input.WorkCategory)
	log.MoodRating = mood
	log.ChallengesFaced = input.ChallengesFaced
	log.Achievements = input.Achievements
	return nil
}

// Create records the employee's work for one date. A second entry for the
// same date fails with ErrDuplicateEntry, whether caught by the pre-check or
// by the unique index.
func (s *DailyWorkService) Create(ctx context.Context, employee *models.User, input DailyWorkInput) (*models.DailyWorkLog, error) {
	if strings.TrimSpace(input.WorkDate) == "" {
		return nil, ErrWorkDateRequired
	}
	workDate, err := ParseDate(input.WorkDate)
	if err != nil {
		return nil, err
	}

	entry := &models.DailyWorkLog{
		UserID:   employee.ID,
		WorkDate: workDate,
	}
	if err := s.applyInput(entry, input); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsForDate(ctx, employee.ID, workDate)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing entry: %w", err)
	}
	if exists {
		return nil, ErrDuplicateEntry
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEntry
		}
		return nil, fmt.Errorf("failed to create daily work entry: %w", err)
	}

	s.log.Info("daily work logged",
		zap.Uint64("entry_id", entry.ID),
		zap.Uint64("user_id", employee.ID),
		zap.String("work_date", time.Time(workDate).Format(constants.DateLayout)),
	)
	return entry, nil
}

// Update edits an entry owned by the employee
func (s *DailyWorkService) Update(ctx context.Context, employee *models.User, id uint64, input DailyWorkInput) (*models.DailyWorkLog, error) {
	entry, err := s.findOwned(ctx, employee, id)
	if err != nil {
		return nil, err
	}

	if err := s.applyInput(entry, input); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to update daily work entry: %w", err)
	}

	s.log.Info("daily work updated", zap.Uint64("entry_id", entry.ID), zap.Uint64("user_id", employee.ID))
	return entry, nil
}

// Delete removes an entry owned by the employee together with its attachments
func (s *DailyWorkService) Delete(ctx context.Context, employee *models.User, id uint64) error {
	if _, err := s.findOwned(ctx, employee, id); err != nil {
		return err
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete daily work entry: %w", err)
	}

	removeAttachmentFiles(ctx, s.storage, s.log, removed)
	s.log.Info("daily work deleted", zap.Uint64("entry_id", id), zap.Uint64("user_id", employee.ID))
	return nil
}

// AttachFiles adds uploaded files to an entry owned by the employee
func (s *DailyWorkService) AttachFiles(ctx context.Context, employee *models.User, id uint64, uploads []storage.Upload) ([]models.WorkAttachment, error) {
	if _, err := s.findOwned(ctx, employee, id); err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, ErrNoFilesUploaded
	}
	if err := storage.Validate(uploads); err != nil {
		return nil, err
	}

	objects, err := storage.SaveAll(ctx, s.storage, constants.UploadScopeDailyWork, uploads)
	if err != nil {
		return nil, err
	}

	attachments := attachmentsFrom(objects)
	if err := s.repo.AddAttachments(ctx, id, attachments); err != nil {
		storage.RemoveAll(ctx, s.storage, objects)
		return nil, fmt.Errorf("failed to save attachments: %w", err)
	}

	s.log.Info("daily work files attached", zap.Uint64("entry_id", id), zap.Int("files", len(attachments)))
	return attachments, nil
}

// ListMine returns the employee's entries, newest date first
func (s *DailyWorkService) ListMine(ctx context.Context, employee *models.User) ([]models.DailyWorkLog, error) {
	logs, err := s.repo.ListByUser(ctx, employee.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily work: %w", err)
	}
	return logs, nil
}

// ListTeam returns one page of the entries written by the manager's employees
func (s *DailyWorkService) ListTeam(ctx context.Context, manager *models.User, params utils.PaginationParams) ([]models.DailyWorkLog, int64, error) {
	if manager.TeamID == nil {
		return []models.DailyWorkLog{}, 0, nil
	}
	logs, total, err := s.repo.ListByTeam(ctx, *manager.TeamID, &params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list team daily work: %w", err)
	}
	return logs, total, nil
}

// Stats summarizes the employee's entries
func (s *DailyWorkService) Stats(ctx context.Context, employee *models.User) (*DailyWorkStats, error) {
	logs, err := s.repo.ListByUsers(ctx, []uint64{employee.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load daily work: %w", err)
	}

	stats := &DailyWorkStats{
		TotalEntries:   int64(len(logs)),
		TotalHours:     decimal.Zero,
		AvgHoursPerDay: decimal.Zero,
	}
	projects := make(map[string]struct{})
	for _, l := range logs {
		stats.TotalHours = stats.TotalHours.Add(l.HoursWorked)
		if l.ProjectName != "" {
			projects[l.ProjectName] = struct{}{}
		}
	}
	if len(logs) > 0 {
		stats.AvgHoursPerDay = stats.TotalHours.Div(decimal.NewFromInt(int64(len(logs)))).Round(2)
	}
	stats.ProjectsWorked = len(projects)

	return stats, nil
}

func (s *DailyWorkService) findOwned(ctx context.Context, employee *models.User, id uint64) (*models.DailyWorkLog, error) {
	entry, err := s.repo.FindOwned(ctx, id, employee.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to find daily work entry: %w", err)
	}
	return entry, nil
}
