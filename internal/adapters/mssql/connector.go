// Package mssql opens department database pools over the SQL Server driver.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver

	"github.com/qldt/qldt-api/internal/domain/tenant"
	"github.com/qldt/qldt-api/internal/ports"
)

// DriverName is the database/sql driver registered by go-mssqldb.
const DriverName = "sqlserver"

// PoolLimits are database/sql pool settings applied to every opened pool.
type PoolLimits struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConnectorOptions configures Connector.
type ConnectorOptions struct {
	Limits PoolLimits
	// AppName is reported to the server as the client application name.
	AppName string
	// OpenFunc replaces sql.Open; tests use it to inject sqlmock.
	OpenFunc func(driverName, dsn string) (*sql.DB, error)
}

// Connector implements ports.Connector for SQL Server.
type Connector struct {
	limits  PoolLimits
	appName string
	open    func(driverName, dsn string) (*sql.DB, error)
}

var _ ports.Connector = (*Connector)(nil)

// NewConnector creates a Connector.
func NewConnector(opts ConnectorOptions) *Connector {
	open := opts.OpenFunc
	if open == nil {
		open = sql.Open
	}
	return &Connector{limits: opts.Limits, appName: opts.AppName, open: open}
}

// Open builds a pool for profile and pings it. The pool is closed if the ping fails.
func (c *Connector) Open(ctx context.Context, profile tenant.CredentialProfile) (*sql.DB, error) {
	dsn, err := BuildDSN(profile, c.appName)
	if err != nil {
		return nil, err
	}

	db, err := c.open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlserver pool: %w", err)
	}
	if c.limits.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.limits.MaxOpenConns)
	}
	if c.limits.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.limits.MaxIdleConns)
	}
	if c.limits.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(c.limits.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close after failed ping: %w", cerr))
		}
		return nil, fmt.Errorf("ping sqlserver %s: %w", profile.Server, err)
	}
	return db, nil
}

// BuildDSN renders profile as a sqlserver:// URL. The named instance goes in the
// path; an explicit port is only used when there is no instance.
func BuildDSN(profile tenant.CredentialProfile, appName string) (string, error) {
	if strings.TrimSpace(profile.Server) == "" {
		return "", errors.New("server is required")
	}
	if profile.Login == "" {
		return "", errors.New("login is required")
	}

	host := profile.Server
	instance := profile.Instance
	if instance == "" {
		instance = profile.Transport.Instance
	}
	if instance == "" && profile.Transport.Port > 0 {
		host = net.JoinHostPort(host, strconv.Itoa(profile.Transport.Port))
	}

	u := &url.URL{
		Scheme: DriverName,
		User:   url.UserPassword(profile.Login, profile.Secret),
		Host:   host,
	}
	if instance != "" {
		u.Path = "/" + instance
	}

	q := url.Values{}
	if profile.Database != "" {
		q.Set("database", profile.Database)
	}
	if profile.Transport.Encrypt != "" {
		q.Set("encrypt", profile.Transport.Encrypt)
	}
	q.Set("TrustServerCertificate", strconv.FormatBool(profile.Transport.TrustServerCertificate))
	if d := profile.Transport.ConnectTimeout; d > 0 {
		secs := int((d + time.Second - 1) / time.Second)
		q.Set("connection timeout", strconv.Itoa(secs))
		q.Set("dial timeout", strconv.Itoa(secs))
	}
	if appName != "" {
		q.Set("app name", appName)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
