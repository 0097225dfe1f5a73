package models

import (
	"time"

	"gorm.io/datatypes"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

type Task struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	AssignedBy  uint64         `gorm:"not null;index" json:"assigned_by"`
	DueDate     datatypes.Date `gorm:"not null" json:"due_date"`
	Priority    TaskPriority   `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Status      TaskStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Relations
	Manager     *User            `gorm:"foreignKey:AssignedBy" json:"-"`
	Assignees   []TaskAssignee   `gorm:"foreignKey:TaskID" json:"-"`
	Submissions []TaskSubmission `gorm:"foreignKey:TaskID" json:"-"`
}

// PrimaryAssigneeID returns the assignee listed first when the task was
// created or last updated. It requires Assignees to be loaded.
func (t *Task) PrimaryAssigneeID() *uint64 {
	if len(t.Assignees) == 0 {
		return nil
	}
	primary := t.Assignees[0]
	for _, a := range t.Assignees[1:] {
		if a.Position < primary.Position {
			primary = a
		}
	}
	id := primary.UserID
	return &id
}

// HasAssignee reports whether userID is in the loaded assignee set.
func (t *Task) HasAssignee(userID uint64) bool {
	for _, a := range t.Assignees {
		if a.UserID == userID {
			return true
		}
	}
	return false
}
