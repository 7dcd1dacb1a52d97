// Package ports defines interfaces (hexagonal ports) for tenant routing and auth behavior.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.
package ports

import (
	"context"
	"database/sql"
	"time"

	domainauth "github.com/qldt/qldt-api/internal/domain/auth"
	"github.com/qldt/qldt-api/internal/domain/tenant"
)

// Connector opens a live connection pool for a credential profile.
// Implementations must verify the pool (ping) before returning it.
type Connector interface {
	Open(ctx context.Context, profile tenant.CredentialProfile) (*sql.DB, error)
}

// PoolRegistry hands out process-wide pools keyed by server and credential class.
type PoolRegistry interface {
	Acquire(ctx context.Context, key tenant.PoolKey, profile tenant.CredentialProfile) (*sql.DB, error)
	// Report evicts the pool for key when err is connection-class and db is still the
	// pool registered under key. It reports whether an eviction happened.
	Report(key tenant.PoolKey, db *sql.DB, err error) bool
	Evict(key tenant.PoolKey) error
}

// Directory resolves department names to server identifiers.
type Directory interface {
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	FindByBranchName(ctx context.Context, name string) (tenant.Tenant, error)
}

// CredentialResolver produces connection parameters for a server and caller class.
type CredentialResolver interface {
	Resolve(serverID string, class tenant.CredentialClass) (tenant.CredentialProfile, error)
}

// IdentityGateway runs the remote identity procedures over a tenant pool.
type IdentityGateway interface {
	// LookupIdentity runs the identity-lookup procedure. A missing row is reported as
	// ok=false with a nil error.
	LookupIdentity(ctx context.Context, db *sql.DB, identifier string, class tenant.CredentialClass) (res domainauth.IdentityLookupResult, ok bool, err error)

	// CheckRestrictedExists runs the restricted-class existence query.
	CheckRestrictedExists(ctx context.Context, db *sql.DB, identifier string) (domainauth.ExistenceCheckResult, error)
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	// Touch records activity without changing the stored lifetime.
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// LoginAttempt is one audited authentication attempt. It never carries a secret.
type LoginAttempt struct {
	Tenant     string
	Class      tenant.CredentialClass
	Identifier string
	Outcome    string // "success" or an error code
	// Secretless is set for restricted logins, which present no secret.
	Secretless bool
	Duration   time.Duration
	At         time.Time
}

// LoginAuditor records authentication attempts.
type LoginAuditor interface {
	Record(ctx context.Context, attempt LoginAttempt) error
}
