package handlers

// gin context keys
const (
	ContextUserID    = "user_id"
	ContextClaims    = "claims"
	ContextRequestID = "request_id"

	RequestIDHeader = "X-Request-ID"

	OAuthStateCookieName = "oauth_state"
)

const (
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
	ErrValidation          = "Validation failed"
	ErrInvalidID           = "Invalid id"
)
