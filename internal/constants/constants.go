package constants

import "time"

// Gin context keys
const (
	ContextKeyUserID    = "userID"
	ContextKeyUser      = "currentUser"
	ContextKeyRequestID = "requestID"
)

// Authentication
const (
	MinPasswordLength = 6
	BcryptCost        = 12
	TokenTTL          = 7 * 24 * time.Hour
	TokenIssuer       = "team-task-api"
)

// Manager codes look like MGR-AB12CD34.
const (
	ManagerCodePrefix      = "MGR-"
	ManagerCodeLength      = 8
	ManagerCodeAlphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	MaxManagerCodeAttempts = 5
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Uploads
const (
	UploadFormField      = "files"
	MaxUploadFiles       = 5
	MaxUploadFileSize    = 10 << 20
	UploadScopeTasks     = "tasks"
	UploadScopeDailyWork = "daily-work"
)

// Daily work
const (
	MaxDailyHours       = 24
	DefaultMoodRating   = "neutral"
	DateLayout          = "2006-01-02"
	RecentActivityLimit = 10
	RecentActivityPart  = 5
)

// AI
const (
	MaxAIGeneratedTasks = 10
)
