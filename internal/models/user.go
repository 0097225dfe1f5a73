package models

import "time"

type UserRole string

const (
	RoleManager  UserRole = "manager"
	RoleEmployee UserRole = "employee"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleManager || r == RoleEmployee
}

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         UserRole  `gorm:"type:varchar(20);not null;index" json:"role"`
	TeamID       *uint64   `gorm:"index" json:"team_id"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BelongsToTeam reports whether the user is linked to the given team.
func (u *User) BelongsToTeam(teamID uint64) bool {
	return u.TeamID != nil && *u.TeamID == teamID
}
