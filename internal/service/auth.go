package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/qldt/qldt-api/internal/domain/auth"
	"github.com/qldt/qldt-api/internal/domain/tenant"
	apperrors "github.com/qldt/qldt-api/internal/errors"
	obserrors "github.com/qldt/qldt-api/internal/observability/errors"
	"github.com/qldt/qldt-api/internal/observability/statsd"
	"github.com/qldt/qldt-api/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Directory ports.Directory
	Pools     *TenantPools
	Identity  ports.IdentityGateway
	Sessions  *SessionService
	// Auditor is optional. Audit failures are logged and never fail a login.
	Auditor ports.LoginAuditor
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// AuthService authenticates staff and students against their department's server
// and persists a session bound to that server.
type AuthService struct {
	directory ports.Directory
	pools     *TenantPools
	identity  ports.IdentityGateway
	sessions  *SessionService
	auditor   ports.LoginAuditor
	metrics   statsd.Sink
	logger    *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	switch {
	case opts.Directory == nil:
		return nil, errors.New("directory is required")
	case opts.Pools == nil:
		return nil, errors.New("tenant pools are required")
	case opts.Identity == nil:
		return nil, errors.New("identity gateway is required")
	case opts.Sessions == nil:
		return nil, errors.New("session service is required")
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = statsd.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		directory: opts.Directory,
		pools:     opts.Pools,
		identity:  opts.Identity,
		sessions:  opts.Sessions,
		auditor:   opts.Auditor,
		metrics:   metrics,
		logger:    logger.With("component", "auth"),
	}, nil
}

// StaffLoginInput groups parameters for a staff login.
type StaffLoginInput struct {
	Username string
	Secret   string //nolint:gosec // never logged
	Tenant   string
}

// RestrictedLoginInput groups parameters for a student login.
type RestrictedLoginInput struct {
	Identifier string
	Tenant     string
}

// LoginResult contains the principal and the session issued for it.
type LoginResult struct {
	Principal domainauth.Principal
	Session   domainauth.Session
}

// AuthenticateStaff resolves the department, runs the identity lookup under the
// staff login, and issues a session. The role label is taken as returned.
//
// The secret must be present but is not checked here: the identity procedure
// is keyed by identifier and caller class only.
func (s *AuthService) AuthenticateStaff(ctx context.Context, in StaffLoginInput) (*LoginResult, error) {
	attempt := loginAttempt{class: tenant.ClassStaff, tenant: in.Tenant, identifier: in.Username}
	return s.login(ctx, attempt, func(ctx context.Context) (domainauth.Principal, error) {
		if strings.TrimSpace(in.Username) == "" || in.Secret == "" {
			return domainauth.Principal{}, apperrors.IdentityNotFound(errors.New("username and password are required"))
		}
		return s.ResolveStaffPrincipal(ctx, in.Tenant, in.Username)
	})
}

// AuthenticateRestricted authenticates a student by identifier. The identifier must
// exist in the restricted table before the identity lookup runs. No secret is involved.
func (s *AuthService) AuthenticateRestricted(ctx context.Context, in RestrictedLoginInput) (*LoginResult, error) {
	attempt := loginAttempt{class: tenant.ClassRestricted, tenant: in.Tenant, identifier: in.Identifier, secretless: true}
	return s.login(ctx, attempt, func(ctx context.Context) (domainauth.Principal, error) {
		return s.ResolveRestrictedPrincipal(ctx, in.Tenant, in.Identifier)
	})
}

// ResolveStaffPrincipal runs the staff flow without issuing a session.
func (s *AuthService) ResolveStaffPrincipal(ctx context.Context, tenantName, username string) (domainauth.Principal, error) {
	t, db, err := s.acquireFor(ctx, tenantName, tenant.ClassStaff)
	if err != nil {
		return domainauth.Principal{}, err
	}
	return s.lookupPrincipal(ctx, t, db, strings.TrimSpace(username), tenant.ClassStaff)
}

// ResolveRestrictedPrincipal runs the student flow without issuing a session.
func (s *AuthService) ResolveRestrictedPrincipal(ctx context.Context, tenantName, identifier string) (domainauth.Principal, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return domainauth.Principal{}, apperrors.RestrictedIdentifierNotFound()
	}
	t, db, err := s.acquireFor(ctx, tenantName, tenant.ClassRestricted)
	if err != nil {
		return domainauth.Principal{}, err
	}

	exists, err := s.identity.CheckRestrictedExists(ctx, db, identifier)
	if err != nil {
		return domainauth.Principal{}, s.queryFailed(ctx, t, db, tenant.ClassRestricted, err)
	}
	if !exists.Exists {
		return domainauth.Principal{}, apperrors.RestrictedIdentifierNotFound()
	}
	return s.lookupPrincipal(ctx, t, db, identifier, tenant.ClassRestricted)
}

// Logout clears the session for token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Clear(ctx, token)
}

func (s *AuthService) acquireFor(ctx context.Context, tenantName string, class tenant.CredentialClass) (tenant.Tenant, *sql.DB, error) {
	name := strings.TrimSpace(tenantName)
	if name == "" {
		return tenant.Tenant{}, nil, apperrors.TenantNotFound(name)
	}
	t, err := s.directory.FindByBranchName(ctx, name)
	if err != nil {
		return tenant.Tenant{}, nil, err
	}
	db, err := s.pools.AcquirePool(ctx, t.ServerID, class)
	if err != nil {
		return tenant.Tenant{}, nil, err
	}
	return t, db, nil
}

func (s *AuthService) lookupPrincipal(
	ctx context.Context,
	t tenant.Tenant,
	db *sql.DB,
	identifier string,
	class tenant.CredentialClass,
) (domainauth.Principal, error) {
	res, ok, err := s.identity.LookupIdentity(ctx, db, identifier, class)
	if err != nil {
		return domainauth.Principal{}, s.queryFailed(ctx, t, db, class, err)
	}
	if !ok {
		return domainauth.Principal{}, apperrors.IdentityNotFound(nil)
	}
	return domainauth.Principal{
		UserID:      res.Username,
		DisplayName: res.FullName,
		RoleLabel:   res.RoleLabel,
		Tenant:      t,
		ServerID:    t.ServerID,
		Restricted:  class == tenant.ClassRestricted,
	}, nil
}

// queryFailed reports a failed remote call on db, t's pool, and evicts it when the
// failure is connection-class.
func (s *AuthService) queryFailed(ctx context.Context, t tenant.Tenant, db *sql.DB, class tenant.CredentialClass, err error) error {
	key := tenant.NewPoolKey(t.ServerID, class)
	if s.pools.Report(key, db, err) {
		s.logger.WarnContext(ctx, "tenant pool evicted after query failure", "key", key.String())
	}
	return apperrors.PoolConnectionFailed(fmt.Errorf("identity query on %s: %w", key, err))
}

type loginAttempt struct {
	class      tenant.CredentialClass
	tenant     string
	identifier string
	secretless bool
}

// login runs resolve, translates any failure into one of the rejection kinds,
// then issues the session and records the attempt.
func (s *AuthService) login(
	ctx context.Context,
	a loginAttempt,
	resolve func(context.Context) (domainauth.Principal, error),
) (*LoginResult, error) {
	start := time.Now()
	principal, err := resolve(ctx)
	if err != nil {
		err = rejection(err)
		s.finish(ctx, a, start, err)
		return nil, err
	}

	sess, err := s.sessions.Save(ctx, principal)
	if err != nil {
		err = apperrors.Wrap(err, apperrors.ErrCodeInternal, "could not start session")
		s.finish(ctx, a, start, err)
		return nil, err
	}
	s.finish(ctx, a, start, nil)
	return &LoginResult{Principal: principal, Session: sess}, nil
}

// rejection maps err onto the authentication error kinds. Anything not already
// one of them is an infrastructure failure reaching the tenant's database.
func rejection(err error) error {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeTenantNotFound,
		apperrors.ErrCodeDirectoryUnavailable,
		apperrors.ErrCodePoolConnectionFailed,
		apperrors.ErrCodeIdentityNotFound,
		apperrors.ErrCodeRestrictedIdentifierNotFound:
		return err
	}
	return apperrors.PoolConnectionFailed(err)
}

func (s *AuthService) finish(ctx context.Context, a loginAttempt, start time.Time, err error) {
	elapsed := time.Since(start)
	outcome := "success"
	if err != nil {
		outcome = obserrors.Classify(err)
	}

	tags := map[string]string{"class": a.class.String(), "result": outcome}
	s.metrics.Count("auth.login", 1, tags)
	s.metrics.Timing("auth.login.duration", elapsed, tags)

	attrs := []any{
		"tenant", a.tenant,
		"class", a.class.String(),
		"identifier", a.identifier,
		"outcome", outcome,
		"duration", elapsed,
	}
	if a.secretless {
		attrs = append(attrs, "secretless", true)
	}
	switch {
	case err == nil && a.secretless:
		s.logger.WarnContext(ctx, "login succeeded without secret", attrs...)
	case err == nil:
		s.logger.InfoContext(ctx, "login succeeded", attrs...)
	case apperrors.IsPoolConnectionFailed(err) || apperrors.IsDirectoryUnavailable(err):
		s.logger.ErrorContext(ctx, "login failed", append(attrs, "error", err)...)
	default:
		s.logger.InfoContext(ctx, "login rejected", append(attrs, "error", err)...)
	}

	if s.auditor == nil {
		return
	}
	auditErr := s.auditor.Record(context.WithoutCancel(ctx), ports.LoginAttempt{
		Tenant:     a.tenant,
		Class:      a.class,
		Identifier: a.identifier,
		Outcome:    outcome,
		Secretless: a.secretless,
		Duration:   elapsed,
		At:         start,
	})
	if auditErr != nil {
		s.logger.WarnContext(ctx, "login audit failed", "error", auditErr)
	}
}
