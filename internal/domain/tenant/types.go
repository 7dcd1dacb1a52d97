// Package tenant contains domain-level types for departments (tenants), credential
// classes, and the connection parameters used to reach a department's database server.
// It is pure and free of driver concerns.
package tenant

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Tenant is one department as listed by the directory view.
// BranchName is the only externally facing key; ServerID is the physical server
// identifier, possibly carrying an instance suffix (HOST\INSTANCE).
type Tenant struct {
	BranchName string `json:"branch_name"`
	ServerID   string `json:"server_id"`
}

// CredentialClass selects which fixed login is used against a server.
type CredentialClass string

const (
	// ClassStaff is the elevated login used for administrative and teaching staff.
	ClassStaff CredentialClass = "staff"
	// ClassRestricted is the low-privilege login used strictly for students.
	ClassRestricted CredentialClass = "restricted"
)

// Valid reports whether c is one of the known credential classes.
func (c CredentialClass) Valid() bool {
	return c == ClassStaff || c == ClassRestricted
}

func (c CredentialClass) String() string { return string(c) }

// PoolKey identifies one connection pool: a server combined with a credential class.
// Two classes on the same server never share a pool.
type PoolKey struct {
	ServerID string
	Class    CredentialClass
}

// NewPoolKey builds the registry key for a server and credential class.
func NewPoolKey(serverID string, class CredentialClass) PoolKey {
	return PoolKey{ServerID: serverID, Class: class}
}

// String renders the key as "serverIdentifier:credentialClass".
func (k PoolKey) String() string {
	return k.ServerID + ":" + string(k.Class)
}

// InstanceSeparator splits a server identifier into host and named instance.
const InstanceSeparator = `\`

// SplitServerID splits "HOST\INSTANCE" into its parts. Identifiers without the
// separator are returned verbatim with an empty instance.
func SplitServerID(serverID string) (host, instance string, err error) {
	id := strings.TrimSpace(serverID)
	if id == "" {
		return "", "", fmt.Errorf("server identifier is empty")
	}
	host, instance, found := strings.Cut(id, InstanceSeparator)
	if !found {
		return id, "", nil
	}
	if host == "" || instance == "" {
		return "", "", fmt.Errorf("malformed server identifier %q", serverID)
	}
	return host, instance, nil
}

// TransportOptions are fixed transport settings applied to every tenant connection.
type TransportOptions struct {
	Instance               string
	Port                   int
	Encrypt                string
	TrustServerCertificate bool
	ConnectTimeout         time.Duration
}

// CredentialProfile is the exact set of connection parameters for one pool.
type CredentialProfile struct {
	Class     CredentialClass
	Server    string
	Instance  string
	Login     string
	Secret    string //nolint:gosec // credential material, redacted in LogValue
	Database  string
	Transport TransportOptions
}

// LogValue keeps the secret out of structured logs.
func (p CredentialProfile) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("class", string(p.Class)),
		slog.String("server", p.Server),
		slog.String("instance", p.Instance),
		slog.String("login", p.Login),
		slog.String("database", p.Database),
	)
}
