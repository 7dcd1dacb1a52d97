package httpx

// Cookie and header names shared by handlers and middleware.
const (
	// SessionCookieName carries the opaque session token. The client never sees
	// anything else about the session.
	SessionCookieName = "session_id"

	// maxJSONBodyBytes caps login and other JSON request bodies.
	maxJSONBodyBytes = 64 << 10
)

// Error codes written in JSON error bodies that do not come from an AppError.
const (
	errCodeAuthenticationRequired = "authentication_required"
	errCodeInsufficientPerms      = "insufficient_permissions"
	errCodeInvalidJSON            = "invalid_json"
	errCodeInternal               = "internal"
)
