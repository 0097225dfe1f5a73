package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/dto"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	log         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log,
	}
}

// RegisterManager creates a manager and the manager's team.
func (h *AuthHandler) RegisterManager(c *gin.Context) {
	type RegisterManagerRequest struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req RegisterManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.RegisterManager(c.Request.Context(), services.RegisterManagerInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	created(c, "Manager registered successfully", dto.AuthResponse{
		User:  dto.ToUserDTO(*result.User, result.Team),
		Token: result.Token,
	})
}

// RegisterEmployee creates an employee in the team owning the manager code.
func (h *AuthHandler) RegisterEmployee(c *gin.Context) {
	type RegisterEmployeeRequest struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		ManagerCode string `json:"managerCode"`
		Code        string `json:"manager_code"`
	}

	var req RegisterEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	code := req.ManagerCode
	if code == "" {
		code = req.Code
	}

	result, err := h.authService.RegisterEmployee(c.Request.Context(), services.RegisterEmployeeInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		ManagerCode: code,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	created(c, "Employee registered successfully", dto.AuthResponse{
		User:  dto.ToUserDTO(*result.User, result.Team),
		Token: result.Token,
	})
}

// Login issues a token for an active user of the requested role.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	respond(c, http.StatusOK, "Login successful", dto.AuthResponse{
		User:  dto.ToUserDTO(*result.User, result.Team),
		Token: result.Token,
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, team, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	ok(c, dto.ToUserDTO(*user, team))
}

// UpdateCurrentUser changes the caller's name, email or password.
func (h *AuthHandler) UpdateCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateProfileRequest struct {
		Name            *string `json:"name"`
		Email           *string `json:"email"`
		CurrentPassword string  `json:"current_password"`
		NewPassword     string  `json:"new_password"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), userID, services.UpdateProfileInput{
		Name:            req.Name,
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	_, team, err := h.authService.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	respond(c, http.StatusOK, "Profile updated successfully", dto.ToUserDTO(*user, team))
}

func (h *AuthHandler) respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrInvalidManagerCode),
		errors.Is(err, services.ErrCurrentPasswordRequired):
		apierrors.BadRequest(c, capitalize(err.Error()))
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, "User with this email already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	default:
		internalError(c, h.log, "Internal server error", err)
	}
}
