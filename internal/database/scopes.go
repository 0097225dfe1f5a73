package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// TeamEmployees restricts a users query to the employees of a team.
// The manager shares the team_id and is excluded by role.
func TeamEmployees(teamID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("users.team_id = ? AND users.role = ?", teamID, models.RoleEmployee)
	}
}

// ActiveUsers keeps only users that may sign in
func ActiveUsers(db *gorm.DB) *gorm.DB {
	return db.Where("users.is_active = ?", true)
}
