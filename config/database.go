package config

import (
	"fmt"
	"net/url"
	"strings"
)

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelPort       string   `env:"SENTINEL_PORT"        envDefault:"26379"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"qldt"`
	Password string `env:"PASSWORD" envDefault:"qldt"`
	Name     string `env:"NAME"     envDefault:"qldt_audit"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
}

// DSN renders a libpq-style URL accepted by the pgx stdlib driver.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// AuditConfig controls the optional login audit store.
type AuditConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	DB      DBConfig `              envPrefix:"DB_"`
	// RunMigrationsOnStart controls whether the application applies audit migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// Sanitize normalises the database settings.
func (c *AuditConfig) Sanitize() {
	c.DB.Host = strings.TrimSpace(c.DB.Host)
	if c.DB.SSLMode = strings.TrimSpace(c.DB.SSLMode); c.DB.SSLMode == "" {
		c.DB.SSLMode = "disable"
	}
	if c.DB.Host == "" {
		c.Enabled = false
	}
}
