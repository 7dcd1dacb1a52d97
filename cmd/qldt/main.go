package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/qldt/qldt-api/config"
	"github.com/qldt/qldt-api/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	if err = bootstrap.ApplyLogLevel(cfg.LogLevel); err != nil {
		logger.WarnContext(ctx, "ignoring log level", "level", cfg.LogLevel, "error", err)
	}

	logStartupInfo(ctx, logger, &cfg)

	auditDB, redisClient, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()
	if auditDB != nil {
		defer func() {
			if cerr := auditDB.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close audit database failed", "error", cerr)
			}
		}()

		if cfg.Audit.RunMigrationsOnStart {
			if err = bootstrap.RunMigrations(ctx, auditDB, logger); err != nil {
				return err
			}
		} else {
			logger.InfoContext(ctx, "skipping audit migrations on startup", "reason", "disabled via config")
		}
	}

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cfg,
		RedisClient: redisClient,
		AuditDB:     auditDB,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	return bootstrap.RunWithShutdown(ctx, &bootstrap.RunConfig{
		Config:   &cfg,
		Services: services,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting qldt api",
		"http_addr", cfg.HTTP.Addr,
		"directory_server", cfg.Directory.PrimaryServer,
		"directory_view", cfg.Directory.View,
		"tenant_database", cfg.TenantDB.Database,
		"audit_enabled", cfg.Audit.Enabled,
		"dev", cfg.IsDev)
}

// initInfrastructure connects Redis and, when enabled, the audit database.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, redis.UniversalClient, error) {
	redisClient, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cfg.Redis,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	if !cfg.Audit.Enabled {
		return nil, redisClient, nil
	}

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cfg.Audit.DB,
		Logger:   logger,
	})
	if err != nil {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis after audit db connect failure", "error", cerr)
			return nil, nil, fmt.Errorf("connect audit db: %w", errors.Join(err, fmt.Errorf("close redis: %w", cerr)))
		}
		return nil, nil, fmt.Errorf("connect audit db: %w", err)
	}
	return db, redisClient, nil
}
