package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/models"
)

// DailyWorkDTO represents a daily work log in API responses
type DailyWorkDTO struct {
	ID              uint64          `json:"id"`
	UserID          uint64          `json:"user_id"`
	EmployeeName    string          `json:"employee_name,omitempty"`
	EmployeeEmail   string          `json:"employee_email,omitempty"`
	WorkDate        string          `json:"work_date"`
	WorkDescription string          `json:"work_description"`
	HoursWorked     decimal.Decimal `json:"hours_worked"`
	ProjectName     string          `json:"project_name"`
	WorkCategory    string          `json:"work_category"`
	MoodRating      string          `json:"mood_rating"`
	ChallengesFaced string          `json:"challenges_faced"`
	Achievements    string          `json:"achievements"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Attachments     []AttachmentDTO `json:"attachments"`
}

// DailyWorkRequest is the body of daily work create and update requests
type DailyWorkRequest struct {
	WorkDate        string          `json:"work_date"`
	WorkDescription string          `json:"work_description"`
	HoursWorked     decimal.Decimal `json:"hours_worked"`
	ProjectName     string          `json:"project_name"`
	WorkCategory    string          `json:"work_category"`
	MoodRating      string          `json:"mood_rating"`
	ChallengesFaced string          `json:"challenges_faced"`
	Achievements    string          `json:"achievements"`
}

func ToDailyWorkDTO(log models.DailyWorkLog) DailyWorkDTO {
	dto := DailyWorkDTO{
		ID:              log.ID,
		UserID:          log.UserID,
		WorkDate:        time.Time(log.WorkDate).Format(constants.DateLayout),
		WorkDescription: log.WorkDescription,
		HoursWorked:     log.HoursWorked,
		ProjectName:     log.ProjectName,
		WorkCategory:    log.WorkCategory,
		MoodRating:      log.MoodRating,
		ChallengesFaced: log.ChallengesFaced,
		Achievements:    log.Achievements,
		CreatedAt:       log.CreatedAt,
		UpdatedAt:       log.UpdatedAt,
		Attachments:     ToAttachmentDTOs(log.Attachments),
	}
	if log.User != nil {
		dto.EmployeeName = log.User.Name
		dto.EmployeeEmail = log.User.Email
	}
	return dto
}

func ToDailyWorkDTOs(logs []models.DailyWorkLog) []DailyWorkDTO {
	result := make([]DailyWorkDTO, len(logs))
	for i, l := range logs {
		result[i] = ToDailyWorkDTO(l)
	}
	return result
}
