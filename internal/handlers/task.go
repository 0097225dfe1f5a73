package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/dto"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/storage"
)

type TaskHandler struct {
	taskService       *services.TaskService
	submissionService *services.SubmissionService
	log               *zap.Logger
}

func NewTaskHandler(taskService *services.TaskService, submissionService *services.SubmissionService, log *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskService:       taskService,
		submissionService: submissionService,
		log:               log,
	}
}

// ListManagerTasks returns every task the manager created
func (h *TaskHandler) ListManagerTasks(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	tasks, err := h.taskService.ListManagerTasks(c.Request.Context(), user)
	if err != nil {
		internalError(c, h.log, "Failed to fetch tasks", err)
		return
	}

	ok(c, dto.ToManagerTaskDTOs(tasks))
}

// ListEmployeeTasks returns the tasks assigned to the employee
func (h *TaskHandler) ListEmployeeTasks(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	tasks, err := h.taskService.ListEmployeeTasks(c.Request.Context(), user)
	if err != nil {
		internalError(c, h.log, "Failed to fetch tasks", err)
		return
	}

	ok(c, dto.ToEmployeeTaskDTOs(tasks))
}

// ListTeamMembers returns the employees a task can be assigned to
func (h *TaskHandler) ListTeamMembers(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	members, err := h.taskService.ListTeamMembers(c.Request.Context(), user)
	if err != nil {
		internalError(c, h.log, "Failed to fetch team members", err)
		return
	}

	ok(c, dto.ToUserSummaryDTOs(members))
}

func taskInput(req dto.TaskRequest) services.TaskInput {
	return services.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeIDs: req.Assignees(),
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Status:      req.Status,
	}
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req dto.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), user, taskInput(req))
	if err != nil {
		h.respondTaskError(c, err, "Failed to create task")
		return
	}

	created(c, "Task created successfully", dto.ToTaskDTO(*task))
}

// UpdateTask replaces a task's fields and assignees
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	taskID, valid := middleware.ParseIDParam(c, "id", "task ID")
	if !valid {
		return
	}

	var req dto.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), user, taskID, taskInput(req))
	if err != nil {
		h.respondTaskError(c, err, "Failed to update task")
		return
	}

	respond(c, http.StatusOK, "Task updated successfully", dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	taskID, valid := middleware.ParseIDParam(c, "id", "task ID")
	if !valid {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), user, taskID); err != nil {
		h.respondTaskError(c, err, "Failed to delete task")
		return
	}

	respond(c, http.StatusOK, "Task deleted successfully", nil)
}

// UpdateStatus moves a task between statuses
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	taskID, valid := middleware.ParseIDParam(c, "id", "task ID")
	if !valid {
		return
	}

	type UpdateStatusRequest struct {
		Status string `json:"status"`
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.taskService.UpdateStatus(c.Request.Context(), user, taskID, req.Status); err != nil {
		h.respondTaskError(c, err, "Failed to update task status")
		return
	}

	respond(c, http.StatusOK, "Task status updated successfully", nil)
}

// SubmitTask records the employee's submission with optional files
func (h *TaskHandler) SubmitTask(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	taskID, valid := middleware.ParseIDParam(c, "id", "task ID")
	if !valid {
		return
	}

	uploads, valid := readUploads(c)
	if !valid {
		return
	}

	submission, err := h.submissionService.SubmitTask(c.Request.Context(), user, taskID, c.PostForm("submission_text"), uploads)
	if err != nil {
		h.respondTaskError(c, err, "Failed to submit task")
		return
	}

	respond(c, http.StatusOK, "Task submitted successfully", dto.SubmitResponse{
		SubmissionID:  submission.ID,
		FilesUploaded: len(uploads),
	})
}

// ReviewSubmission approves or rejects a submission
func (h *TaskHandler) ReviewSubmission(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	taskID, valid := middleware.ParseIDParam(c, "id", "task ID")
	if !valid {
		return
	}
	submissionID, valid := middleware.ParseIDParam(c, "submissionId", "submission ID")
	if !valid {
		return
	}

	type ReviewRequest struct {
		Status          string `json:"status"`
		ManagerFeedback string `json:"manager_feedback"`
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	submission, err := h.submissionService.ReviewSubmission(c.Request.Context(), user, taskID, submissionID, req.Status, req.ManagerFeedback)
	if err != nil {
		h.respondTaskError(c, err, "Failed to review submission")
		return
	}

	respond(c, http.StatusOK, "Submission reviewed successfully", dto.ToSubmissionDTO(*submission))
}

// GenerateTasks drafts tasks from free text with AI
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	type GenerateTasksRequest struct {
		Text string `json:"text"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		apierrors.BadRequest(c, "Text is required")
		return
	}

	tasks, err := h.taskService.GenerateTasks(c.Request.Context(), req.Text)
	if err != nil {
		h.respondTaskError(c, err, "Failed to generate tasks")
		return
	}

	ok(c, gin.H{"tasks": tasks})
}

// readUploads collects the files of a multipart request. A request that is
// not multipart carries no files. On failure it writes the response.
func readUploads(c *gin.Context) ([]storage.Upload, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, true
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.UploadError(c, "Request body too large")
			return nil, false
		}
		apierrors.UploadError(c, "Invalid multipart form")
		return nil, false
	}

	files := form.File[constants.UploadFormField]
	if len(files) > constants.MaxUploadFiles {
		apierrors.UploadError(c, capitalize(storage.ErrTooManyFiles.Error()))
		return nil, false
	}

	uploads := make([]storage.Upload, len(files))
	for i, f := range files {
		uploads[i] = storage.FromMultipart(f)
	}
	return uploads, true
}

func (h *TaskHandler) respondTaskError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrSubmissionNotFound):
		apierrors.NotFound(c, "Submission not found")
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrAssigneesRequired),
		errors.Is(err, services.ErrDueDateRequired),
		errors.Is(err, services.ErrInvalidDate),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidAssignees),
		errors.Is(err, services.ErrInvalidReview),
		errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, capitalize(err.Error()))
	case errors.Is(err, storage.ErrTooManyFiles),
		errors.Is(err, storage.ErrFileTooLarge),
		errors.Is(err, storage.ErrFileTypeNotAllowed):
		apierrors.UploadError(c, capitalize(err.Error()))
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured")
	default:
		internalError(c, h.log, fallback, err)
	}
}
