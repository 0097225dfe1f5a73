package models

import "time"

// TaskAssignee links a task to one employee. Position keeps the order the
// manager listed the assignees in; position 0 is the primary assignee.
type TaskAssignee struct {
	TaskID    uint64    `gorm:"primaryKey;autoIncrement:false" json:"task_id"`
	UserID    uint64    `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"-"`
}
