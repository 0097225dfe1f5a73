package repository

import (
	"context"

	"github.com/yukikurage/team-task-api/internal/database"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDailyWorkRepository is a GORM implementation of DailyWorkRepository
type GormDailyWorkRepository struct {
	db *gorm.DB
}

// NewDailyWorkRepository creates a new DailyWorkRepository
func NewDailyWorkRepository(db *gorm.DB) DailyWorkRepository {
	return &GormDailyWorkRepository{db: db}
}

func (r *GormDailyWorkRepository) Create(ctx context.Context, log *models.DailyWorkLog) error {
	return r.db.WithContext(ctx).Omit("User", "Attachments").Create(log).Error
}

func (r *GormDailyWorkRepository) ExistsForDate(ctx context.Context, userID uint64, date datatypes.Date) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DailyWorkLog{}).
		Where("user_id = ? AND work_date = ?", userID, date).
		Count(&count).Error
	return count > 0, err
}

func (r *GormDailyWorkRepository) FindOwned(ctx context.Context, id, userID uint64) (*models.DailyWorkLog, error) {
	var log models.DailyWorkLog
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Preload("Attachments").
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// Update writes the editable columns only; owner and date never change
func (r *GormDailyWorkRepository) Update(ctx context.Context, log *models.DailyWorkLog) error {
	return r.db.WithContext(ctx).Model(log).
		Select("work_description", "hours_worked", "project_name", "work_category",
			"mood_rating", "challenges_faced", "achievements", "updated_at").
		Updates(log).Error
}

func (r *GormDailyWorkRepository) Delete(ctx context.Context, id uint64) ([]models.WorkAttachment, error) {
	var removed []models.WorkAttachment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("daily_work_id = ?", id).Find(&removed).Error; err != nil {
			return err
		}
		if err := tx.Where("daily_work_id = ?", id).Delete(&models.WorkAttachment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.DailyWorkLog{}, id).Error
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}

func (r *GormDailyWorkRepository) AddAttachments(ctx context.Context, logID uint64, attachments []models.WorkAttachment) error {
	if len(attachments) == 0 {
		return nil
	}
	for i := range attachments {
		attachments[i].DailyWorkID = &logID
		attachments[i].SubmissionID = nil
	}
	return r.db.WithContext(ctx).Create(&attachments).Error
}

func (r *GormDailyWorkRepository) ListByUser(ctx context.Context, userID uint64) ([]models.DailyWorkLog, error) {
	var logs []models.DailyWorkLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Attachments").
		Order("work_date DESC").Order("id DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func teamEmployees(db *gorm.DB, teamID uint64) *gorm.DB {
	return db.Model(&models.User{}).Select("users.id").Scopes(database.TeamEmployees(teamID))
}

// ListByTeam returns one page of the team's logs and the total row count.
// A nil params returns every row.
func (r *GormDailyWorkRepository) ListByTeam(ctx context.Context, teamID uint64, params *utils.PaginationParams) ([]models.DailyWorkLog, int64, error) {
	db := r.db.WithContext(ctx)
	query := db.Model(&models.DailyWorkLog{}).
		Where("daily_work_logs.user_id IN (?)", teamEmployees(db, teamID)).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.
		Joins("User").
		Preload("Attachments").
		Order("daily_work_logs.work_date DESC").
		Order(clause.OrderByColumn{Column: clause.Column{Table: "User", Name: "name"}}).
		Order("daily_work_logs.id DESC")
	if params != nil {
		listQuery = listQuery.Scopes(database.Paginate(*params))
	}

	var logs []models.DailyWorkLog
	if err := listQuery.Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

func (r *GormDailyWorkRepository) ListByUsers(ctx context.Context, userIDs []uint64) ([]models.DailyWorkLog, error) {
	var logs []models.DailyWorkLog
	if len(userIDs) == 0 {
		return logs, nil
	}
	err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&logs).Error
	return logs, err
}

func (r *GormDailyWorkRepository) ListRecentByTeam(ctx context.Context, teamID uint64, limit int) ([]models.DailyWorkLog, error) {
	db := r.db.WithContext(ctx)
	var logs []models.DailyWorkLog
	err := db.Model(&models.DailyWorkLog{}).
		Where("daily_work_logs.user_id IN (?)", teamEmployees(db, teamID)).
		Joins("User").
		Order("daily_work_logs.created_at DESC").Order("daily_work_logs.id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
