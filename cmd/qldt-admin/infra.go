package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/qldt/qldt-api/internal/bootstrap"
)

var errAuditDisabled = errors.New("audit store is disabled; set AUDIT_ENABLED=true and AUDIT_DB_HOST")

func connectAuditDB(cmdCtx *commandContext) (*sql.DB, error) {
	if !cmdCtx.Config.Audit.Enabled {
		return nil, errAuditDisabled
	}
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Audit.DB,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect audit db: %w", err)
	}
	return db, nil
}

//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func connectRedis(cmdCtx *commandContext) (redis.UniversalClient, error) {
	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

// withTenantAccess builds the directory and pool services, runs fn, then closes every pool it opened.
func withTenantAccess(cmdCtx *commandContext, fn func(*bootstrap.TenantAccess) error) (err error) {
	access, err := bootstrap.NewTenantAccess(&bootstrap.TenantAccessDeps{
		Config: &cmdCtx.Config,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := access.Registry.ShutdownAll(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close tenant pools: %w", cerr))
		}
	}()
	return fn(access)
}

func closeDB(logger *slog.Logger, db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Warn("db close failed", "error", err)
	}
}

func closeRedis(logger *slog.Logger, client redis.UniversalClient) {
	if err := client.Close(); err != nil {
		logger.Warn("redis close failed", "error", err)
	}
}
