package middleware

import (
	"github.com/gin-gonic/gin"

	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/models"
)

func requireRole(role models.UserRole, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUser(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}
		if user.Role != role {
			apierrors.Forbidden(c, message)
			return
		}
		c.Next()
	}
}

// RequireManager must run after RequireAuth
func RequireManager() gin.HandlerFunc {
	return requireRole(models.RoleManager, "Manager access required")
}

// RequireEmployee must run after RequireAuth
func RequireEmployee() gin.HandlerFunc {
	return requireRole(models.RoleEmployee, "Employee access required")
}
