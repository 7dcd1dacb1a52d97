package httpx

import (
	"context"

	domainauth "github.com/qldt/qldt-api/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext retrieves the session placed by RequireAuth, or nil.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	if s, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok {
		return s
	}
	return nil
}

// PrincipalFromContext returns the authenticated principal and whether one is present.
func PrincipalFromContext(ctx context.Context) (domainauth.Principal, bool) {
	s := GetSessionFromContext(ctx)
	if s == nil {
		return domainauth.Principal{}, false
	}
	return s.Principal, true
}
