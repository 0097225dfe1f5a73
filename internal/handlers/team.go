package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/services"
)

type TeamHandler struct {
	teamService *services.TeamService
	log         *zap.Logger
}

func NewTeamHandler(teamService *services.TeamService, log *zap.Logger) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
		log:         log,
	}
}

func (h *TeamHandler) Members(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	members, err := h.teamService.Members(c.Request.Context(), user)
	if err != nil {
		internalError(c, h.log, "Failed to fetch team members", err)
		return
	}

	ok(c, members)
}

func (h *TeamHandler) Stats(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	stats, err := h.teamService.Stats(c.Request.Context(), user)
	if err != nil {
		internalError(c, h.log, "Failed to fetch team statistics", err)
		return
	}

	ok(c, stats)
}

func (h *TeamHandler) Performance(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	performance, err := h.teamService.Performance(c.Request.Context(), user)
	if err != nil {
		internalError(c, h.log, "Failed to fetch team performance data", err)
		return
	}

	ok(c, performance)
}

// SetMemberStatus activates or deactivates an employee
func (h *TeamHandler) SetMemberStatus(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	memberID, valid := middleware.ParseIDParam(c, "id", "member ID")
	if !valid {
		return
	}

	type SetStatusRequest struct {
		IsActive *bool `json:"is_active"`
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		apierrors.BadRequest(c, "is_active is required")
		return
	}

	err := h.teamService.SetMemberStatus(c.Request.Context(), user, memberID, *req.IsActive)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrMemberNotFound):
		apierrors.NotFound(c, "Team member not found")
		return
	default:
		internalError(c, h.log, "Failed to update team member status", err)
		return
	}

	message := "Team member deactivated successfully"
	if *req.IsActive {
		message = "Team member activated successfully"
	}
	respond(c, http.StatusOK, message, nil)
}

// Info describes the caller's team
func (h *TeamHandler) Info(c *gin.Context) {
	user, exists := middleware.GetUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	info, err := h.teamService.Info(c.Request.Context(), user)
	if err != nil {
		if errors.Is(err, services.ErrTeamNotFound) {
			apierrors.NotFound(c, "Team not found")
			return
		}
		internalError(c, h.log, "Failed to fetch team information", err)
		return
	}

	ok(c, info)
}
