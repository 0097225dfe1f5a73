package models

import "time"

// Team is created together with its founding manager. The manager code is
// what employees present at registration to join the team.
type Team struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	TeamName    string    `gorm:"type:varchar(255);not null" json:"team_name"`
	ManagerID   uint64    `gorm:"not null;index" json:"manager_id"`
	ManagerCode string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"manager_code"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	Manager *User `gorm:"foreignKey:ManagerID" json:"-"`
}
