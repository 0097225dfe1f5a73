package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DailyWorkLog is unique per (user, work date).
type DailyWorkLog struct {
	ID              uint64          `gorm:"primarykey" json:"id"`
	UserID          uint64          `gorm:"not null;uniqueIndex:idx_daily_work_logs_user_date,priority:1" json:"user_id"`
	WorkDate        datatypes.Date  `gorm:"not null;uniqueIndex:idx_daily_work_logs_user_date,priority:2" json:"work_date"`
	WorkDescription string          `gorm:"type:text;not null" json:"work_description"`
	HoursWorked     decimal.Decimal `gorm:"type:decimal(4,2);not null;default:0" json:"hours_worked"`
	ProjectName     string          `gorm:"type:varchar(255)" json:"project_name"`
	WorkCategory    string          `gorm:"type:varchar(100)" json:"work_category"`
	MoodRating      string          `gorm:"type:varchar(20);not null;default:'neutral'" json:"mood_rating"`
	ChallengesFaced string          `gorm:"type:text" json:"challenges_faced"`
	Achievements    string          `gorm:"type:text" json:"achievements"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Relations
	User        *User            `gorm:"foreignKey:UserID" json:"-"`
	Attachments []WorkAttachment `gorm:"foreignKey:DailyWorkID" json:"-"`
}
