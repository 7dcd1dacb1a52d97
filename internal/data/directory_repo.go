package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/qldt/qldt-api/internal/domain/tenant"
	apperrors "github.com/qldt/qldt-api/internal/errors"
	"github.com/qldt/qldt-api/internal/ports"
)

// DefaultDirectoryView is the view listing departments on the primary server.
const DefaultDirectoryView = "dbo.v_DepartmentDirectory"

// DirectoryRepoOptions groups dependencies for DirectoryRepo.
type DirectoryRepoOptions struct {
	Registry ports.PoolRegistry
	Resolver ports.CredentialResolver
	// PrimaryServer is the server identifier hosting the directory view.
	PrimaryServer string
	View          string
	Logger        *slog.Logger
}

// DirectoryRepo reads the department directory from the primary server.
// Every call is a fresh read; nothing is cached.
type DirectoryRepo struct {
	registry ports.PoolRegistry
	resolver ports.CredentialResolver
	primary  string
	view     string
	logger   *slog.Logger
}

var _ ports.Directory = (*DirectoryRepo)(nil)

// NewDirectoryRepo validates opts and builds a DirectoryRepo.
func NewDirectoryRepo(opts DirectoryRepoOptions) (*DirectoryRepo, error) {
	if opts.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("credential resolver is required")
	}
	if strings.TrimSpace(opts.PrimaryServer) == "" {
		return nil, errors.New("primary server is required")
	}
	view := opts.View
	if view == "" {
		view = DefaultDirectoryView
	}
	if err := checkObjectName("directory view", view); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryRepo{
		registry: opts.Registry,
		resolver: opts.Resolver,
		primary:  strings.TrimSpace(opts.PrimaryServer),
		view:     view,
		logger:   logger.With("component", "directory"),
	}, nil
}

// ListTenants returns every department ordered by BranchName.
func (r *DirectoryRepo) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	query := fmt.Sprintf(`SELECT branch_name, server_name FROM %s`, r.view)
	out, err := r.read(ctx, query)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].BranchName < out[j].BranchName })
	return out, nil
}

// FindByBranchName resolves one department by name.
func (r *DirectoryRepo) FindByBranchName(ctx context.Context, name string) (tenant.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return tenant.Tenant{}, apperrors.TenantNotFound(name)
	}
	query := fmt.Sprintf(`SELECT branch_name, server_name FROM %s WHERE branch_name = @branch`, r.view)
	rows, err := r.read(ctx, query, sql.Named("branch", name))
	if err != nil {
		return tenant.Tenant{}, err
	}
	if len(rows) == 0 {
		return tenant.Tenant{}, apperrors.TenantNotFound(name)
	}
	return rows[0], nil
}

func (r *DirectoryRepo) read(ctx context.Context, query string, args ...any) ([]tenant.Tenant, error) {
	key := tenant.NewPoolKey(r.primary, tenant.ClassStaff)
	profile, err := r.resolver.Resolve(r.primary, tenant.ClassStaff)
	if err != nil {
		return nil, apperrors.DirectoryUnavailable(fmt.Errorf("resolve primary profile: %w", err))
	}
	db, err := r.registry.Acquire(ctx, key, profile)
	if err != nil {
		r.logger.WarnContext(ctx, "primary pool unavailable", "server", r.primary, "error", err)
		return nil, apperrors.DirectoryUnavailable(err)
	}

	out, err := scanTenants(ctx, db, query, args...)
	if err != nil {
		if r.registry.Report(key, db, err) {
			r.logger.WarnContext(ctx, "primary pool evicted after read failure", "server", r.primary)
		}
		r.logger.ErrorContext(ctx, "directory read failed", "view", r.view, "error", err)
		return nil, apperrors.DirectoryUnavailable(err)
	}
	return out, nil
}

func scanTenants(ctx context.Context, db *sql.DB, query string, args ...any) (out []tenant.Tenant, err error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query directory: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close directory rows: %w", cerr)
		}
	}()

	out = []tenant.Tenant{}
	for rows.Next() {
		var branch, server sql.NullString
		if err := rows.Scan(&branch, &server); err != nil {
			return nil, fmt.Errorf("scan directory row: %w", err)
		}
		t := tenant.Tenant{
			BranchName: strings.TrimSpace(branch.String),
			ServerID:   strings.TrimSpace(server.String),
		}
		if t.BranchName == "" || t.ServerID == "" {
			return nil, fmt.Errorf("malformed directory row %q -> %q", branch.String, server.String)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate directory rows: %w", err)
	}
	return out, nil
}
