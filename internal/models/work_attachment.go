package models

import "time"

// WorkAttachment belongs to exactly one of a task submission or a daily
// work log.
type WorkAttachment struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	SubmissionID *uint64   `gorm:"index" json:"submission_id,omitempty"`
	DailyWorkID  *uint64   `gorm:"index" json:"daily_work_id,omitempty"`
	FileName     string    `gorm:"type:varchar(255);not null" json:"file_name"`
	FilePath     string    `gorm:"type:varchar(500);not null" json:"file_path"`
	FileType     string    `gorm:"type:varchar(100)" json:"file_type"`
	FileSize     int64     `json:"file_size"`
	CreatedAt    time.Time `json:"created_at"`
}
