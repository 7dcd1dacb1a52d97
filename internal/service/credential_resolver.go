package service

import (
	"errors"
	"strings"

	"github.com/qldt/qldt-api/internal/domain/tenant"
	apperrors "github.com/qldt/qldt-api/internal/errors"
	"github.com/qldt/qldt-api/internal/ports"
)

// CredentialSet is one fixed login for a credential class.
type CredentialSet struct {
	Login  string
	Secret string //nolint:gosec // configured credential
}

// CredentialResolverOptions carries the fixed credentials and transport settings.
type CredentialResolverOptions struct {
	Staff      CredentialSet
	Restricted CredentialSet
	Database   string
	Transport  tenant.TransportOptions
}

// CredentialResolver builds connection profiles from configuration. It performs no I/O.
type CredentialResolver struct {
	creds     map[tenant.CredentialClass]CredentialSet
	database  string
	transport tenant.TransportOptions
}

var _ ports.CredentialResolver = (*CredentialResolver)(nil)

// NewCredentialResolver validates that both classes have a login.
func NewCredentialResolver(opts CredentialResolverOptions) (*CredentialResolver, error) {
	if strings.TrimSpace(opts.Staff.Login) == "" {
		return nil, errors.New("staff login is required")
	}
	if strings.TrimSpace(opts.Restricted.Login) == "" {
		return nil, errors.New("restricted login is required")
	}
	if opts.Staff.Login == opts.Restricted.Login {
		return nil, errors.New("staff and restricted logins must differ")
	}
	return &CredentialResolver{
		creds: map[tenant.CredentialClass]CredentialSet{
			tenant.ClassStaff:      opts.Staff,
			tenant.ClassRestricted: opts.Restricted,
		},
		database:  opts.Database,
		transport: opts.Transport,
	}, nil
}

// Resolve returns the profile for serverID and class. "HOST\INSTANCE" is split into
// server and instance; any other identifier is used as the server verbatim.
func (r *CredentialResolver) Resolve(serverID string, class tenant.CredentialClass) (tenant.CredentialProfile, error) {
	creds, ok := r.creds[class]
	if !ok {
		return tenant.CredentialProfile{}, apperrors.ValidationField("class", "unknown credential class "+string(class))
	}
	host, instance, err := tenant.SplitServerID(serverID)
	if err != nil {
		return tenant.CredentialProfile{}, apperrors.ValidationField("server", err.Error())
	}

	transport := r.transport
	transport.Instance = instance
	return tenant.CredentialProfile{
		Class:     class,
		Server:    host,
		Instance:  instance,
		Login:     creds.Login,
		Secret:    creds.Secret,
		Database:  r.database,
		Transport: transport,
	}, nil
}
