package constants

// Context and session keys
const (
	ContextKeyUserID  = "user_id"
	ContextKeyActor   = "actor"
	SessionCookieName = "marketplace_session"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Deliverable uploads
const (
	DefaultMaxUploadBytes = 50 * 1024 * 1024
	UploadKeyPrefix       = "submissions"
	UploadExtension       = ".zip"
)

// MaxAIGeneratedTasks caps the number of drafted tasks returned per call
const MaxAIGeneratedTasks = 20

// DefaultProjectCategory is used when a project is created without one
const DefaultProjectCategory = "Other"
