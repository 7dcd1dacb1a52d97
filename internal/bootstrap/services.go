package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/qldt/qldt-api/config"
	"github.com/qldt/qldt-api/internal/adapters/mssql"
	redisadapter "github.com/qldt/qldt-api/internal/adapters/redis"
	"github.com/qldt/qldt-api/internal/data"
	"github.com/qldt/qldt-api/internal/data/tenantdb"
	"github.com/qldt/qldt-api/internal/domain/tenant"
	"github.com/qldt/qldt-api/internal/observability/statsd"
	"github.com/qldt/qldt-api/internal/ports"
	"github.com/qldt/qldt-api/internal/service"
)

const appName = "qldt-api"

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Registry     *tenantdb.Registry
	Directory    *data.DirectoryRepo
	Resolver     *service.CredentialResolver
	Identity     *data.IdentityRepo
	Pools        *service.TenantPools
	SessionStore *redisadapter.SessionStore
	Sessions     *service.SessionService
	Auth         *service.AuthService
	// Audit is nil when the audit store is disabled.
	Audit   *data.LoginAuditRepo
	Metrics statsd.Sink

	metricsClient *statsd.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	// AuditDB is optional.
	AuditDB *sql.DB
	// Connector overrides the SQL Server connector; tests inject fake pools here.
	Connector ports.Connector
	Logger    *slog.Logger
}

// NewServices wires the registry, directory, identity gateway, and auth services.
func NewServices(deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("config is required")
	}
	if deps.RedisClient == nil {
		return nil, errors.New("redis client is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &ServiceContainer{}
	c.metricsClient, c.Metrics = newMetrics(logger, cfg.Observability)
	if err := c.wire(deps, logger); err != nil {
		return nil, errors.Join(err, c.Close())
	}
	return c, nil
}

// wire builds every service on top of the metrics sink already set on c.
// Whatever it built before failing is released by Close.
func (c *ServiceContainer) wire(deps *ServiceDeps, logger *slog.Logger) error {
	cfg := deps.Config
	access, err := NewTenantAccess(&TenantAccessDeps{
		Config:    cfg,
		Connector: deps.Connector,
		Metrics:   c.Metrics,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	c.Registry = access.Registry
	c.Resolver = access.Resolver
	c.Directory = access.Directory
	c.Pools = access.Pools

	c.Identity, err = data.NewIdentityRepo(data.IdentityRepoOptions{
		Procedure:               cfg.Identity.Procedure,
		StaffDiscriminator:      cfg.Identity.StaffDiscriminator,
		RestrictedDiscriminator: cfg.Identity.RestrictedDiscriminator,
		RestrictedTable:         cfg.Identity.RestrictedTable,
		RestrictedIDColumn:      cfg.Identity.RestrictedIDColumn,
	})
	if err != nil {
		return fmt.Errorf("create identity gateway: %w", err)
	}

	c.SessionStore = redisadapter.NewSessionStoreWithPrefix(deps.RedisClient, cfg.Session.KeyPrefix)
	c.Sessions, err = service.NewSessionService(service.SessionServiceOptions{
		Store:  c.SessionStore,
		MaxAge: cfg.Session.MaxAge,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("create session service: %w", err)
	}

	authOpts := service.AuthServiceOptions{
		Directory: c.Directory,
		Pools:     c.Pools,
		Identity:  c.Identity,
		Sessions:  c.Sessions,
		Metrics:   c.Metrics,
		Logger:    logger,
	}
	if deps.AuditDB != nil {
		c.Audit = data.NewLoginAuditRepo(deps.AuditDB)
		authOpts.Auditor = c.Audit
	}
	c.Auth, err = service.NewAuthService(authOpts)
	if err != nil {
		return fmt.Errorf("create auth service: %w", err)
	}
	return nil
}

// TenantAccess is the subset of services that reach department databases.
// The admin CLI builds it without Redis.
type TenantAccess struct {
	Registry  *tenantdb.Registry
	Resolver  *service.CredentialResolver
	Directory *data.DirectoryRepo
	Pools     *service.TenantPools
}

// TenantAccessDeps groups dependencies for NewTenantAccess.
type TenantAccessDeps struct {
	Config *config.AppConfig
	// Connector defaults to the SQL Server connector.
	Connector ports.Connector
	Metrics   statsd.Sink
	Logger    *slog.Logger
}

// NewTenantAccess wires the pool registry, credential resolver, directory, and pool policy.
func NewTenantAccess(deps *TenantAccessDeps) (*TenantAccess, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := deps.Config

	connector := deps.Connector
	if connector == nil {
		connector = mssql.NewConnector(mssql.ConnectorOptions{
			Limits: mssql.PoolLimits{
				MaxOpenConns:    cfg.TenantDB.MaxOpenConns,
				MaxIdleConns:    cfg.TenantDB.MaxIdleConns,
				ConnMaxLifetime: cfg.TenantDB.ConnMaxLifetime,
			},
			AppName: appName,
		})
	}

	a := &TenantAccess{}
	var err error
	a.Registry, err = tenantdb.NewRegistry(tenantdb.RegistryOptions{
		Connector:      connector,
		ConnectTimeout: cfg.TenantDB.ConnectTimeout,
		Metrics:        deps.Metrics,
		Logger:         deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create pool registry: %w", err)
	}

	a.Resolver, err = newCredentialResolver(cfg.TenantDB)
	if err != nil {
		return nil, fmt.Errorf("create credential resolver: %w", err)
	}

	a.Directory, err = data.NewDirectoryRepo(data.DirectoryRepoOptions{
		Registry:      a.Registry,
		Resolver:      a.Resolver,
		PrimaryServer: cfg.Directory.PrimaryServer,
		View:          cfg.Directory.View,
		Logger:        deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	a.Pools, err = service.NewTenantPools(service.TenantPoolsOptions{
		Registry: a.Registry,
		Resolver: a.Resolver,
		Policy: service.AcquirePolicy{
			Attempts: cfg.Auth.PoolAcquireAttempts,
			Backoff:  cfg.Auth.PoolAcquireBackoff,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create tenant pools: %w", err)
	}
	return a, nil
}

// Close releases every tenant pool and the metrics connection.
func (c *ServiceContainer) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Registry != nil {
		if err := c.Registry.ShutdownAll(); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tenant pools: %w", err))
		}
	}
	if err := c.metricsClient.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close statsd client: %w", err))
	}
	return errors.Join(errs...)
}

func newCredentialResolver(cfg config.TenantDBConfig) (*service.CredentialResolver, error) {
	return service.NewCredentialResolver(service.CredentialResolverOptions{
		Staff:      service.CredentialSet{Login: cfg.StaffLogin, Secret: cfg.StaffPassword},
		Restricted: service.CredentialSet{Login: cfg.RestrictedLogin, Secret: cfg.RestrictedPassword},
		Database:   cfg.Database,
		Transport: tenant.TransportOptions{
			Port:                   cfg.Port,
			Encrypt:                cfg.Encrypt,
			TrustServerCertificate: cfg.TrustServerCertificate,
			ConnectTimeout:         cfg.ConnectTimeout,
		},
	})
}

// newMetrics is swapped in tests to observe the client's lifecycle.
var newMetrics = buildMetrics

// buildMetrics returns the statsd client (nil when disabled) and the sink services should use.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityConfig) (*statsd.Client, statsd.Sink) {
	if !cfg.Metrics.IsEnabled() {
		return nil, statsd.Discard
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  cfg.Metrics.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil, statsd.Discard
	}
	return client, client
}
