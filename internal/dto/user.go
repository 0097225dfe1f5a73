package dto

import (
	"time"

	"github.com/yukikurage/team-task-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          uint64          `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Role        models.UserRole `json:"role"`
	TeamID      *uint64         `json:"team_id"`
	TeamName    string          `json:"team_name,omitempty"`
	ManagerCode string          `json:"manager_code,omitempty"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// UserSummaryDTO is the short form used inside other resources
type UserSummaryDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse is returned by registration and login
type AuthResponse struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

// ToUserDTO converts a User model to UserDTO. The manager code is only
// exposed to the team's manager.
func ToUserDTO(user models.User, team *models.Team) UserDTO {
	dto := UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		TeamID:    user.TeamID,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
	if team != nil {
		dto.TeamName = team.TeamName
		if team.ManagerID == user.ID {
			dto.ManagerCode = team.ManagerCode
		}
	}
	return dto
}

func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

func ToUserSummaryDTOs(users []models.User) []UserSummaryDTO {
	result := make([]UserSummaryDTO, len(users))
	for i, u := range users {
		result[i] = ToUserSummaryDTO(u)
	}
	return result
}
