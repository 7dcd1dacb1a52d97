package testutil

import (
	"io"
	"log/slog"
	"time"

	domainauth "github.com/qldt/qldt-api/internal/domain/auth"
	"github.com/qldt/qldt-api/internal/domain/tenant"
)

// TestTime returns a fixed time for testing.
func TestTime() time.Time {
	return time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
}

// PrincipalBuilder provides a fluent interface for building principals in tests.
type PrincipalBuilder struct {
	p domainauth.Principal
}

// NewStaffPrincipal starts from the staff user of the IT Department on HOST\INSTANCE1.
func NewStaffPrincipal() *PrincipalBuilder {
	t := tenant.Tenant{BranchName: "IT Department", ServerID: `HOST\INSTANCE1`}
	return &PrincipalBuilder{p: domainauth.Principal{
		UserID:      "htkn_user",
		DisplayName: "Dr. Nguyen",
		RoleLabel:   "KHOA",
		Tenant:      t,
		ServerID:    t.ServerID,
	}}
}

// Restricted marks the principal as a student with the given identifier.
func (b *PrincipalBuilder) Restricted(identifier string) *PrincipalBuilder {
	b.p.UserID = identifier
	b.p.RoleLabel = "SV"
	b.p.Restricted = true
	return b
}

// WithTenant binds the principal to t.
func (b *PrincipalBuilder) WithTenant(t tenant.Tenant) *PrincipalBuilder {
	b.p.Tenant = t
	b.p.ServerID = t.ServerID
	return b
}

// WithRole sets the role label.
func (b *PrincipalBuilder) WithRole(role string) *PrincipalBuilder {
	b.p.RoleLabel = role
	return b
}

// Build returns the principal.
func (b *PrincipalBuilder) Build() domainauth.Principal {
	return b.p
}

// Session wraps the principal in a session that logged in at loginAt.
func (b *PrincipalBuilder) Session(id string, loginAt time.Time, maxAge time.Duration) domainauth.Session {
	return domainauth.Session{
		ID:             id,
		Principal:      b.p,
		LoginAt:        loginAt,
		LastActivityAt: loginAt,
		ExpiresAt:      loginAt.Add(maxAge),
	}
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
