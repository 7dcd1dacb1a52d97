package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	domainauth "github.com/qldt/qldt-api/internal/domain/auth"
	"github.com/qldt/qldt-api/internal/domain/tenant"
	"github.com/qldt/qldt-api/internal/ports"
)

// Identity procedure and existence-check defaults.
const (
	DefaultIdentityProcedure       = "dbo.sp_LookupIdentity"
	DefaultStaffDiscriminator      = "staff"
	DefaultRestrictedDiscriminator = "student"
	DefaultRestrictedTable         = "dbo.Students"
	DefaultRestrictedIDColumn      = "StudentID"
)

// IdentityRepoOptions configures the remote objects IdentityRepo calls.
type IdentityRepoOptions struct {
	Procedure               string
	StaffDiscriminator      string
	RestrictedDiscriminator string
	RestrictedTable         string
	RestrictedIDColumn      string
}

// IdentityRepo runs the identity procedures over a tenant pool supplied per call.
type IdentityRepo struct {
	lookupQuery    string
	existenceQuery string
	discriminators map[tenant.CredentialClass]string
}

var _ ports.IdentityGateway = (*IdentityRepo)(nil)

// NewIdentityRepo validates object names and prepares the statements.
func NewIdentityRepo(opts IdentityRepoOptions) (*IdentityRepo, error) {
	proc := withDefault(opts.Procedure, DefaultIdentityProcedure)
	table := withDefault(opts.RestrictedTable, DefaultRestrictedTable)
	column := withDefault(opts.RestrictedIDColumn, DefaultRestrictedIDColumn)
	if err := checkObjectName("identity procedure", proc); err != nil {
		return nil, err
	}
	if err := checkObjectName("restricted table", table); err != nil {
		return nil, err
	}
	if err := checkObjectName("restricted id column", column); err != nil {
		return nil, err
	}

	staff := withDefault(opts.StaffDiscriminator, DefaultStaffDiscriminator)
	restricted := withDefault(opts.RestrictedDiscriminator, DefaultRestrictedDiscriminator)
	if staff == restricted {
		return nil, fmt.Errorf("staff and restricted discriminators must differ, both are %q", staff)
	}

	return &IdentityRepo{
		lookupQuery:    fmt.Sprintf(`EXEC %s @identifier, @role`, proc),
		existenceQuery: fmt.Sprintf(`SELECT TOP (1) 1 FROM %s WHERE %s = @identifier`, table, column),
		discriminators: map[tenant.CredentialClass]string{
			tenant.ClassStaff:      staff,
			tenant.ClassRestricted: restricted,
		},
	}, nil
}

// LookupIdentity runs the identity procedure with the discriminator for class.
// No row, or a row without a username, yields ok=false.
func (r *IdentityRepo) LookupIdentity(
	ctx context.Context,
	db *sql.DB,
	identifier string,
	class tenant.CredentialClass,
) (domainauth.IdentityLookupResult, bool, error) {
	role, ok := r.discriminators[class]
	if !ok {
		return domainauth.IdentityLookupResult{}, false, fmt.Errorf("unknown credential class %q", class)
	}

	var username, fullName, roleLabel sql.NullString
	err := db.QueryRowContext(ctx, r.lookupQuery,
		sql.Named("identifier", identifier),
		sql.Named("role", role),
	).Scan(&username, &fullName, &roleLabel)
	if errors.Is(err, sql.ErrNoRows) {
		return domainauth.IdentityLookupResult{}, false, nil
	}
	if err != nil {
		return domainauth.IdentityLookupResult{}, false, fmt.Errorf("exec identity lookup: %w", err)
	}

	res, ok := domainauth.IdentityLookupResult{
		Username:  username.String,
		FullName:  fullName.String,
		RoleLabel: roleLabel.String,
	}.Normalize()
	return res, ok, nil
}

// CheckRestrictedExists reports whether identifier is present in the restricted table.
func (r *IdentityRepo) CheckRestrictedExists(ctx context.Context, db *sql.DB, identifier string) (domainauth.ExistenceCheckResult, error) {
	out := domainauth.ExistenceCheckResult{Identifier: identifier}
	var one int
	err := db.QueryRowContext(ctx, r.existenceQuery, sql.Named("identifier", identifier)).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return out, nil
	case err != nil:
		return out, fmt.Errorf("check restricted identifier: %w", err)
	}
	out.Exists = true
	return out, nil
}

func withDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
