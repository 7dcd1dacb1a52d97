// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/qldt/qldt-api/internal/domain/tenant"
)

// DefaultSessionMaxAge is the absolute session lifetime counted from login.
const DefaultSessionMaxAge = 8 * time.Hour

// ErrSessionNotFound is returned by session stores for unknown or expired tokens.
var ErrSessionNotFound = errors.New("session not found")

// Principal is the normalized identity of an authenticated caller.
// A principal is bound to exactly one tenant and server for its whole life;
// switching department requires a new login.
type Principal struct {
	UserID      string        `json:"user_id"`
	DisplayName string        `json:"display_name"`
	RoleLabel   string        `json:"role_label"` // raw role string from the identity lookup
	Tenant      tenant.Tenant `json:"tenant"`
	ServerID    string        `json:"server_id"`
	Restricted  bool          `json:"restricted"`
}

// CredentialClass returns the pool class this principal must use for tenant data.
func (p Principal) CredentialClass() tenant.CredentialClass {
	if p.Restricted {
		return tenant.ClassRestricted
	}
	return tenant.ClassStaff
}

// PoolKey returns the registry key bound to this principal at login.
func (p Principal) PoolKey() tenant.PoolKey {
	return tenant.NewPoolKey(p.ServerID, p.CredentialClass())
}

// Session is the server-side record we persist for an authenticated principal.
// ID is an opaque token; the client only ever holds the ID.
type Session struct {
	ID             string    `json:"id"`
	Principal      Principal `json:"principal"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// ExpiredAt reports whether the session is past its absolute lifetime at now.
// Expiry counts from LoginAt; LastActivityAt does not extend it.
func (s Session) ExpiredAt(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	return now.Sub(s.LoginAt) >= maxAge
}

// IdentityLookupResult is the parsed row returned by the identity-lookup procedure.
type IdentityLookupResult struct {
	Username  string
	FullName  string
	RoleLabel string
}

// Normalize trims the padding fixed-width columns carry and reports whether the
// row is usable. A row without a username is malformed.
func (r IdentityLookupResult) Normalize() (IdentityLookupResult, bool) {
	out := IdentityLookupResult{
		Username:  strings.TrimSpace(r.Username),
		FullName:  strings.TrimSpace(r.FullName),
		RoleLabel: strings.TrimSpace(r.RoleLabel),
	}
	return out, out.Username != ""
}

// ExistenceCheckResult is the parsed outcome of the restricted-class existence query.
type ExistenceCheckResult struct {
	Identifier string
	Exists     bool
}
