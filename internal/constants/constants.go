package constants

// Context and session keys
const (
	ContextKeyUserID  = "user_id"
	ContextKeyActor   = "actor"
	SessionCookieName = "taskboard_session"
)

// Field limits
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxCategoryLength    = 15
	MaxTagsPerTask       = 20
	MaxCommentLength     = 1000
	MinPasswordLength    = 6
	MinUsernameLength    = 3
	MaxUsernameLength    = 30
	MinPersonNameLength  = 2
	MaxPersonNameLength  = 50
	MaxAIGeneratedTasks  = 10
	MaxAIInputTextLength = 5000
	SessionMaxAgeSeconds = 86400 * 7
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// DeletedCommentPlaceholder replaces the content of soft-deleted comments for regular readers.
const DeletedCommentPlaceholder = "This comment has been deleted."
