package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/team-task-api/internal/constants"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/token"
)

// Authenticator resolves a bearer token to an active user
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*models.User, error)
}

// RequireAuth checks the bearer token and loads the current user. A missing
// header is 401, a bad or expired token is 403 and an unknown or inactive
// user is 401.
func RequireAuth(auth Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		bearer, found := strings.CutPrefix(header, "Bearer ")
		bearer = strings.TrimSpace(bearer)
		if !found || bearer == "" {
			apierrors.Unauthorized(c, "Access token required")
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), bearer)
		switch {
		case err == nil:
		case errors.Is(err, token.ErrTokenExpired), errors.Is(err, token.ErrTokenInvalid):
			apierrors.InvalidToken(c)
			return
		case errors.Is(err, services.ErrInactiveUser):
			apierrors.Unauthorized(c, "Invalid or inactive user")
			return
		default:
			log.Error("failed to authenticate request", zap.Error(err))
			apierrors.InternalError(c, "")
			return
		}

		// Store the user in context for easy access in handlers
		c.Set(constants.ContextKeyUser, user)
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Next()
	}
}

// GetUser retrieves the current user from context
func GetUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
