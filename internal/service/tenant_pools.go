package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/qldt/qldt-api/internal/domain/auth"
	"github.com/qldt/qldt-api/internal/domain/tenant"
	apperrors "github.com/qldt/qldt-api/internal/errors"
	"github.com/qldt/qldt-api/internal/ports"
)

// AcquirePolicy is the single retry policy for pool acquisition.
// The zero value makes one attempt.
type AcquirePolicy struct {
	Attempts int
	Backoff  time.Duration
}

func (p AcquirePolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// Do calls acquire until it succeeds, the attempts are used up, or ctx ends.
// Only pool_connection_failed errors are retried.
func (p AcquirePolicy) Do(ctx context.Context, acquire func(context.Context) (*sql.DB, error)) (*sql.DB, error) {
	var lastErr error
	for i := range p.attempts() {
		if i > 0 && p.Backoff > 0 {
			timer := time.NewTimer(p.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, errors.Join(lastErr, ctx.Err())
			case <-timer.C:
			}
		}
		db, err := acquire(ctx)
		if err == nil {
			return db, nil
		}
		lastErr = err
		if !apperrors.IsPoolConnectionFailed(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// TenantPoolsOptions groups dependencies for TenantPools.
type TenantPoolsOptions struct {
	Registry ports.PoolRegistry
	Resolver ports.CredentialResolver
	Policy   AcquirePolicy
}

// TenantPools is the entry point for tenant-scoped data operations. It resolves a
// profile and acquires the pool for a server and class on every call.
type TenantPools struct {
	registry ports.PoolRegistry
	resolver ports.CredentialResolver
	policy   AcquirePolicy
}

// NewTenantPools constructs a TenantPools.
func NewTenantPools(opts TenantPoolsOptions) (*TenantPools, error) {
	if opts.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("credential resolver is required")
	}
	return &TenantPools{registry: opts.Registry, resolver: opts.Resolver, policy: opts.Policy}, nil
}

// AcquirePool returns the pool for serverID under class. Malformed identifiers yield a
// validation error; connection problems yield pool_connection_failed.
func (p *TenantPools) AcquirePool(ctx context.Context, serverID string, class tenant.CredentialClass) (*sql.DB, error) {
	profile, err := p.resolver.Resolve(serverID, class)
	if err != nil {
		return nil, err
	}
	key := tenant.NewPoolKey(serverID, class)
	return p.policy.Do(ctx, func(ctx context.Context) (*sql.DB, error) {
		return p.registry.Acquire(ctx, key, profile)
	})
}

// ForPrincipal returns the pool bound to principal at login.
func (p *TenantPools) ForPrincipal(ctx context.Context, principal domainauth.Principal) (*sql.DB, error) {
	if principal.ServerID == "" {
		return nil, apperrors.ValidationField("server", "principal has no bound server")
	}
	return p.AcquirePool(ctx, principal.ServerID, principal.CredentialClass())
}

// Run acquires the principal's pool and calls fn with it. A connection-class error
// from fn evicts the pool so the next call reconnects.
func (p *TenantPools) Run(ctx context.Context, principal domainauth.Principal, fn func(context.Context, *sql.DB) error) error {
	db, err := p.ForPrincipal(ctx, principal)
	if err != nil {
		return err
	}
	if err := fn(ctx, db); err != nil {
		if p.registry.Report(principal.PoolKey(), db, err) {
			return apperrors.PoolConnectionFailed(fmt.Errorf("tenant operation: %w", err))
		}
		return err
	}
	return nil
}

// Report forwards a failure observed on db, the pool acquired for key, to the registry.
func (p *TenantPools) Report(key tenant.PoolKey, db *sql.DB, err error) bool {
	return p.registry.Report(key, db, err)
}
