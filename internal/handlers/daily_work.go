package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/team-task-api/internal/dto"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/storage"
	"github.com/yukikurage/team-task-api/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DailyWorkHandler struct {
	dailyWorkService *services.DailyWorkService
	log              *zap.Logger
}

func NewDailyWorkHandler(dailyWorkService *services.DailyWorkService, log *zap.Logger) *DailyWorkHandler {
	return &DailyWorkHandler{
		dailyWorkService: dailyWorkService,
		log:              log,
	}
}

func dailyWorkInput(req dto.DailyWorkRequest) services.DailyWorkInput {
	return services.DailyWorkInput{
		WorkDate:        req.WorkDate,
		WorkDescription: req.WorkDescription,
		HoursWorked:     req.HoursWorked,
		ProjectName:     req.ProjectName,
		WorkCategory:    req.WorkCategory,
		MoodRating:      req.MoodRating,
		ChallengesFaced: req.ChallengesFaced,
		Achievements:    req.Achievements,
	}
}

// ListMine returns the employee's own entries
func (h *DailyWorkHandler) ListMine(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	logs, err := h.dailyWorkService.ListMine(c.Request.Context(), user)
	if err != nil {
		internalError(c, h.log, "Failed to fetch daily work entries", err)
		return
	}

	ok(c, dto.ToDailyWorkDTOs(logs))
}

// ListTeam returns one page of the team's entries
func (h *DailyWorkHandler) ListTeam(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)
	logs, total, err := h.dailyWorkService.ListTeam(c.Request.Context(), user, params)
	if err != nil {
		internalError(c, h.log, "Failed to fetch team daily work", err)
		return
	}

	okPage(c, dto.ToDailyWorkDTOs(logs), params.Response(total))
}

// Stats summarizes the employee's entries
func (h *DailyWorkHandler) Stats(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	stats, err := h.dailyWorkService.Stats(c.Request.Context(), user)
	if err != nil {
		internalError(c, h.log, "Failed to fetch work statistics", err)
		return
	}

	ok(c, stats)
}

// ExportTeam downloads the team's entries as a spreadsheet
func (h *DailyWorkHandler) ExportTeam(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	buf, filename, err := h.dailyWorkService.ExportTeam(c.Request.Context(), user)
	if err != nil {
		internalError(c, h.log, "Failed to export daily work", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Create records the employee's work for one date
func (h *DailyWorkHandler) Create(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req dto.DailyWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	entry, err := h.dailyWorkService.Create(c.Request.Context(), user, dailyWorkInput(req))
	if err != nil {
		h.respondDailyWorkError(c, err, "Failed to create daily work entry")
		return
	}

	created(c, "Daily work entry created successfully", dto.ToDailyWorkDTO(*entry))
}

// Update edits one of the employee's entries
func (h *DailyWorkHandler) Update(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	entryID, valid := middleware.ParseIDParam(c, "id", "entry ID")
	if !valid {
		return
	}

	var req dto.DailyWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	entry, err := h.dailyWorkService.Update(c.Request.Context(), user, entryID, dailyWorkInput(req))
	if err != nil {
		h.respondDailyWorkError(c, err, "Failed to update daily work entry")
		return
	}

	respond(c, http.StatusOK, "Daily work entry updated successfully", dto.ToDailyWorkDTO(*entry))
}

// Delete removes one of the employee's entries
func (h *DailyWorkHandler) Delete(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	entryID, valid := middleware.ParseIDParam(c, "id", "entry ID")
	if !valid {
		return
	}

	if err := h.dailyWorkService.Delete(c.Request.Context(), user, entryID); err != nil {
		h.respondDailyWorkError(c, err, "Failed to delete daily work entry")
		return
	}

	respond(c, http.StatusOK, "Daily work entry deleted successfully", nil)
}

// AttachFiles uploads files to one of the employee's entries
func (h *DailyWorkHandler) AttachFiles(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	entryID, valid := middleware.ParseIDParam(c, "id", "entry ID")
	if !valid {
		return
	}

	uploads, valid := readUploads(c)
	if !valid {
		return
	}

	attachments, err := h.dailyWorkService.AttachFiles(c.Request.Context(), user, entryID, uploads)
	if err != nil {
		h.respondDailyWorkError(c, err, "Failed to upload files")
		return
	}

	created(c, "Files uploaded successfully", dto.ToAttachmentDTOs(attachments))
}

func (h *DailyWorkHandler) respondDailyWorkError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrEntryNotFound):
		apierrors.NotFound(c, "Daily work entry not found")
	case errors.Is(err, services.ErrDuplicateEntry):
		apierrors.Conflict(c, "Daily work entry already exists for this date")
	case errors.Is(err, services.ErrWorkDateRequired),
		errors.Is(err, services.ErrInvalidHoursWorked),
		errors.Is(err, services.ErrInvalidDate):
		apierrors.BadRequest(c, capitalize(err.Error()))
	case errors.Is(err, services.ErrNoFilesUploaded),
		errors.Is(err, storage.ErrTooManyFiles),
		errors.Is(err, storage.ErrFileTooLarge),
		errors.Is(err, storage.ErrFileTypeNotAllowed):
		apierrors.UploadError(c, capitalize(err.Error()))
	default:
		internalError(c, h.log, fallback, err)
	}
}
