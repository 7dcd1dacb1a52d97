package config

import (
	"strings"
	"time"
)

// DirectoryConfig locates the department directory.
type DirectoryConfig struct {
	// PrimaryServer is the server id (HOST or HOST\INSTANCE) hosting the directory view.
	PrimaryServer string `env:"DIRECTORY_PRIMARY_SERVER,required"`
	// View is the schema-qualified view listing branch_name and server_name.
	View string `env:"DIRECTORY_VIEW" envDefault:"dbo.v_DepartmentDirectory"`
}

// Sanitize trims identifiers.
func (c *DirectoryConfig) Sanitize() {
	c.PrimaryServer = strings.TrimSpace(c.PrimaryServer)
	c.View = strings.TrimSpace(c.View)
	if c.View == "" {
		c.View = "dbo.v_DepartmentDirectory"
	}
}

// TenantDBConfig holds the two fixed credential sets and the shared transport
// settings used for every department database.
type TenantDBConfig struct {
	Database string `env:"DATABASE" envDefault:"QLDT"`
	// Port is used only for servers without a named instance. Zero lets the driver decide.
	Port int `env:"PORT" envDefault:"0"`

	StaffLogin         string `env:"STAFF_LOGIN,required"`
	StaffPassword      string `env:"STAFF_PASSWORD"`
	RestrictedLogin    string `env:"RESTRICTED_LOGIN,required"`
	RestrictedPassword string `env:"RESTRICTED_PASSWORD"`

	Encrypt                string        `env:"ENCRYPT"                  envDefault:"disable"`
	TrustServerCertificate bool          `env:"TRUST_SERVER_CERTIFICATE" envDefault:"true"`
	ConnectTimeout         time.Duration `env:"CONNECT_TIMEOUT"          envDefault:"15s"`

	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"    envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"    envDefault:"2"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
}

// Sanitize clamps pool limits and normalises the encrypt mode.
func (c *TenantDBConfig) Sanitize() {
	c.Database = strings.TrimSpace(c.Database)
	c.StaffLogin = strings.TrimSpace(c.StaffLogin)
	c.RestrictedLogin = strings.TrimSpace(c.RestrictedLogin)

	switch strings.ToLower(strings.TrimSpace(c.Encrypt)) {
	case "true", "strict":
		c.Encrypt = strings.ToLower(strings.TrimSpace(c.Encrypt))
	case "false":
		c.Encrypt = "false"
	default:
		c.Encrypt = "disable"
	}

	if c.Port < 0 || c.Port > 65535 {
		c.Port = 0
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 15 * time.Second
	}
	if c.MaxOpenConns < 1 {
		c.MaxOpenConns = 1
	}
	if c.MaxIdleConns < 0 {
		c.MaxIdleConns = 0
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime < 0 {
		c.ConnMaxLifetime = 0
	}
}

// IdentityConfig names the database objects used for identity lookup.
type IdentityConfig struct {
	Procedure               string `env:"IDENTITY_PROCEDURE"                envDefault:"dbo.sp_LookupIdentity"`
	StaffDiscriminator      string `env:"IDENTITY_STAFF_DISCRIMINATOR"      envDefault:"staff"`
	RestrictedDiscriminator string `env:"IDENTITY_RESTRICTED_DISCRIMINATOR" envDefault:"student"`
	RestrictedTable         string `env:"RESTRICTED_TABLE"                  envDefault:"dbo.Students"`
	RestrictedIDColumn      string `env:"RESTRICTED_ID_COLUMN"              envDefault:"StudentID"`
}

// Sanitize trims names; validation of object names happens in the repository.
func (c *IdentityConfig) Sanitize() {
	c.Procedure = strings.TrimSpace(c.Procedure)
	c.StaffDiscriminator = strings.TrimSpace(c.StaffDiscriminator)
	c.RestrictedDiscriminator = strings.TrimSpace(c.RestrictedDiscriminator)
	c.RestrictedTable = strings.TrimSpace(c.RestrictedTable)
	c.RestrictedIDColumn = strings.TrimSpace(c.RestrictedIDColumn)
}
