package dto

import (
	"strings"
	"time"

	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/models"
)

// AttachmentDTO represents a stored file in API responses
type AttachmentDTO struct {
	ID        uint64    `json:"id"`
	FileName  string    `json:"file_name"`
	FilePath  string    `json:"file_path"`
	FileType  string    `json:"file_type"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmissionDTO represents a task submission in API responses
type SubmissionDTO struct {
	ID              uint64                  `json:"id"`
	TaskID          uint64                  `json:"task_id"`
	SubmittedBy     uint64                  `json:"submitted_by"`
	SubmitterName   string                  `json:"submitter_name,omitempty"`
	SubmissionText  string                  `json:"submission_text"`
	FileName        string                  `json:"file_name,omitempty"`
	FilePath        string                  `json:"file_path,omitempty"`
	Status          models.SubmissionStatus `json:"status"`
	ManagerFeedback string                  `json:"manager_feedback,omitempty"`
	SubmittedAt     time.Time               `json:"submitted_at"`
	Attachments     []AttachmentDTO         `json:"attachments"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	AssignedBy     uint64              `json:"assigned_by"`
	AssignedByName string              `json:"assigned_by_name,omitempty"`
	AssignedTo     *uint64             `json:"assigned_to"`
	AssignedToName string              `json:"assigned_to_name"`
	Assignees      []UserSummaryDTO    `json:"assignees"`
	DueDate        string              `json:"due_date"`
	Priority       models.TaskPriority `json:"priority"`
	Status         models.TaskStatus   `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Submissions    []SubmissionDTO     `json:"submissions,omitempty"`
	Submission     *SubmissionDTO      `json:"submission,omitempty"`
}

// TaskRequest is the body of task create and update requests. assigned_to
// is the legacy name of assignee_ids.
type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  IDList `json:"assigned_to"`
	AssigneeIDs IDList `json:"assignee_ids"`
	DueDate     string `json:"due_date"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
}

// Assignees prefers assignee_ids over assigned_to
func (r TaskRequest) Assignees() []uint64 {
	if len(r.AssigneeIDs) > 0 {
		return r.AssigneeIDs
	}
	return r.AssignedTo
}

// SubmitResponse is returned after a task submission
type SubmitResponse struct {
	SubmissionID  uint64 `json:"submission_id"`
	FilesUploaded int    `json:"files_uploaded"`
}

// Conversion functions

func ToAttachmentDTOs(attachments []models.WorkAttachment) []AttachmentDTO {
	result := make([]AttachmentDTO, len(attachments))
	for i, a := range attachments {
		result[i] = AttachmentDTO{
			ID:        a.ID,
			FileName:  a.FileName,
			FilePath:  a.FilePath,
			FileType:  a.FileType,
			FileSize:  a.FileSize,
			CreatedAt: a.CreatedAt,
		}
	}
	return result
}

func ToSubmissionDTO(s models.TaskSubmission) SubmissionDTO {
	dto := SubmissionDTO{
		ID:              s.ID,
		TaskID:          s.TaskID,
		SubmittedBy:     s.SubmittedBy,
		SubmissionText:  s.SubmissionText,
		FileName:        s.FileName,
		FilePath:        s.FilePath,
		Status:          s.Status,
		ManagerFeedback: s.ManagerFeedback,
		SubmittedAt:     s.SubmittedAt,
		Attachments:     ToAttachmentDTOs(s.Attachments),
	}
	if s.Submitter != nil {
		dto.SubmitterName = s.Submitter.Name
	}
	return dto
}

// ToTaskDTO converts a Task model to TaskDTO. Assignees must be loaded in
// position order for assigned_to to name the primary assignee.
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		AssignedBy:  task.AssignedBy,
		AssignedTo:  task.PrimaryAssigneeID(),
		Assignees:   make([]UserSummaryDTO, 0, len(task.Assignees)),
		DueDate:     time.Time(task.DueDate).Format(constants.DateLayout),
		Priority:    task.Priority,
		Status:      task.Status,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	if task.Manager != nil {
		dto.AssignedByName = task.Manager.Name
	}

	names := make([]string, 0, len(task.Assignees))
	for _, a := range task.Assignees {
		if a.User == nil {
			continue
		}
		dto.Assignees = append(dto.Assignees, ToUserSummaryDTO(*a.User))
		names = append(names, a.User.Name)
	}
	dto.AssignedToName = strings.Join(names, ", ")
	if dto.AssignedToName == "" {
		dto.AssignedToName = "Unassigned"
	}

	return dto
}

// ToManagerTaskDTOs includes every submission of each task
func ToManagerTaskDTOs(tasks []models.Task) []TaskDTO {
	result := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		dto := ToTaskDTO(task)
		dto.Submissions = make([]SubmissionDTO, len(task.Submissions))
		for j, s := range task.Submissions {
			dto.Submissions[j] = ToSubmissionDTO(s)
		}
		result[i] = dto
	}
	return result
}

// ToEmployeeTaskDTOs includes only the caller's own submission, which is
// the only one loaded for employees
func ToEmployeeTaskDTOs(tasks []models.Task) []TaskDTO {
	result := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		dto := ToTaskDTO(task)
		if len(task.Submissions) > 0 {
			s := ToSubmissionDTO(task.Submissions[0])
			dto.Submission = &s
		}
		result[i] = dto
	}
	return result
}
