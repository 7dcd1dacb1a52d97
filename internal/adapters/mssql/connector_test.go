package mssql

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qldt/qldt-api/internal/domain/tenant"
)

func testProfile() tenant.CredentialProfile {
	return tenant.CredentialProfile{
		Class:    tenant.ClassStaff,
		Server:   "HOST",
		Instance: "INSTANCE1",
		Login:    "app_staff",
		Secret:   "p@ss:w/rd",
		Database: "QLDT",
		Transport: tenant.TransportOptions{
			Port:                   1433,
			Encrypt:                "disable",
			TrustServerCertificate: true,
			ConnectTimeout:         15 * time.Second,
		},
	}
}

func TestBuildDSN_NamedInstance(t *testing.T) {
	dsn, err := BuildDSN(testProfile(), "qldt")
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "sqlserver", u.Scheme)
	assert.Equal(t, "HOST", u.Host, "port is ignored for named instances")
	assert.Equal(t, "/INSTANCE1", u.Path)
	assert.Equal(t, "app_staff", u.User.Username())
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss:w/rd", pw)

	q := u.Query()
	assert.Equal(t, "QLDT", q.Get("database"))
	assert.Equal(t, "disable", q.Get("encrypt"))
	assert.Equal(t, "true", q.Get("TrustServerCertificate"))
	assert.Equal(t, "15", q.Get("connection timeout"))
	assert.Equal(t, "qldt", q.Get("app name"))
}

func TestBuildDSN_PlainHostUsesPort(t *testing.T) {
	p := testProfile()
	p.Server = "db-new"
	p.Instance = ""

	dsn, err := BuildDSN(p, "")
	require.NoError(t, err)
	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db-new:1433", u.Host)
	assert.Empty(t, u.Path)
	assert.Empty(t, u.Query().Get("app name"))
}

func TestBuildDSN_Validation(t *testing.T) {
	p := testProfile()
	p.Server = " "
	_, err := BuildDSN(p, "")
	require.Error(t, err)

	p = testProfile()
	p.Login = ""
	_, err = BuildDSN(p, "")
	require.Error(t, err)
}

func TestConnector_OpenPingsAndAppliesLimits(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()

	var gotDriver, gotDSN string
	c := NewConnector(ConnectorOptions{
		Limits: PoolLimits{MaxOpenConns: 5, MaxIdleConns: 2},
		OpenFunc: func(driverName, dsn string) (*sql.DB, error) {
			gotDriver, gotDSN = driverName, dsn
			return db, nil
		},
	})

	out, err := c.Open(context.Background(), testProfile())
	require.NoError(t, err)
	assert.Same(t, db, out)
	assert.Equal(t, DriverName, gotDriver)
	assert.Contains(t, gotDSN, "sqlserver://")
	assert.Equal(t, 5, out.Stats().MaxOpenConnections)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnector_OpenClosesPoolWhenPingFails(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(errors.New("login failed for user 'app_staff'"))
	mock.ExpectClose()

	c := NewConnector(ConnectorOptions{
		OpenFunc: func(string, string) (*sql.DB, error) { return db, nil },
	})

	_, err = c.Open(context.Background(), testProfile())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login failed")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnector_OpenRejectsBadProfile(t *testing.T) {
	called := false
	c := NewConnector(ConnectorOptions{
		OpenFunc: func(string, string) (*sql.DB, error) {
			called = true
			return nil, errors.New("unexpected")
		},
	})
	p := testProfile()
	p.Server = ""
	_, err := c.Open(context.Background(), p)
	require.Error(t, err)
	assert.False(t, called)
}
