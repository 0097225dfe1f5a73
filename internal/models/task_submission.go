package models

import "time"

type SubmissionStatus string

const (
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusApproved  SubmissionStatus = "approved"
	SubmissionStatusRejected  SubmissionStatus = "rejected"
)

// TaskSubmission holds at most one row per (task, employee). Resubmitting
// updates the row in place.
type TaskSubmission struct {
	ID              uint64           `gorm:"primarykey" json:"id"`
	TaskID          uint64           `gorm:"not null;uniqueIndex:idx_task_submissions_task_user,priority:1" json:"task_id"`
	SubmittedBy     uint64           `gorm:"not null;uniqueIndex:idx_task_submissions_task_user,priority:2" json:"submitted_by"`
	SubmissionText  string           `gorm:"type:text" json:"submission_text"`
	FilePath        string           `gorm:"type:varchar(500)" json:"file_path"`
	FileName        string           `gorm:"type:varchar(255)" json:"file_name"`
	Status          SubmissionStatus `gorm:"type:varchar(20);not null;default:'submitted'" json:"status"`
	ManagerFeedback string           `gorm:"type:text" json:"manager_feedback"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	// Relations
	Submitter   *User            `gorm:"foreignKey:SubmittedBy" json:"-"`
	Attachments []WorkAttachment `gorm:"foreignKey:SubmissionID" json:"-"`
}
