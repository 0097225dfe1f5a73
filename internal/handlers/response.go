package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/utils"
)

// Response is the success form of the response envelope
type Response struct {
	Success    bool                      `json:"success"`
	Message    string                    `json:"message,omitempty"`
	Data       interface{}               `json:"data,omitempty"`
	Pagination *utils.PaginationResponse `json:"pagination,omitempty"`
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ok(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, "", data)
}

func created(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusCreated, message, data)
}

func okPage(c *gin.Context, data interface{}, pagination utils.PaginationResponse) {
	c.JSON(http.StatusOK, Response{
		Success:    true,
		Data:       data,
		Pagination: &pagination,
	})
}

// internalError logs err and answers with a generic message
func internalError(c *gin.Context, log *zap.Logger, message string, err error) {
	log.Error(message,
		zap.Error(err),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
	)
	apierrors.InternalError(c, message)
}

// capitalize turns a sentinel error text into a response message
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
