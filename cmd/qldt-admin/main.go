package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/qldt/qldt-api/config"
	"github.com/qldt/qldt-api/internal/bootstrap"
	"github.com/qldt/qldt-api/internal/data"
	"github.com/qldt/qldt-api/internal/migrate"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultCommandTimeout   = time.Minute
)

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	if err := bootstrap.ApplyLogLevel(cfg.LogLevel); err != nil {
		logger.Warn("ignoring log level", "level", cfg.LogLevel, "error", err)
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Apply pending login audit migrations",
			run:         runMigrations,
		},
		"list-tenants": {
			name:        "list-tenants",
			description: "List departments from the directory on the primary server",
			run:         runListTenants,
		},
		"check-tenant": {
			name:        "check-tenant",
			description: "Connect to one department with both logins and report the result",
			run:         runCheckTenant,
		},
		"list-sessions": {
			name:        "list-sessions",
			description: "List active sessions stored in Redis",
			run:         runListSessions,
		},
		"clear-sessions": {
			name:        "clear-sessions",
			description: "Delete every stored session, signing all users out",
			run:         runClearSessions,
		},
		"audit-tail": {
			name:        "audit-tail",
			description: "Show the most recent login attempts from the audit store",
			run:         runAuditTail,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: qldt-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := cmds[name]
		if err := writef(os.Stdout, "  %-24s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

type migrateOptions struct {
	Timeout time.Duration
	Status  bool
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{Timeout: defaultMigrationTimeout}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")
	fs.BoolVar(&opts.Status, "status", false, "List pending migrations without applying them")

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	db, err := connectAuditDB(cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx.Logger, db)

	if opts.Status {
		pending, err := migrate.Pending(ctx, db)
		if err != nil {
			return fmt.Errorf("list pending migrations: %w", err)
		}
		return printPending(os.Stdout, pending)
	}

	cmdCtx.Logger.Info("running audit migrations")
	if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

type auditTailOptions struct {
	Tenant string
	Limit  int
}

func parseAuditTailFlags(args []string) (auditTailOptions, error) {
	fs := flag.NewFlagSet("audit-tail", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := auditTailOptions{Limit: 20}
	fs.StringVar(&opts.Tenant, "tenant", "", "Only show attempts for this department")
	fs.IntVar(&opts.Limit, "limit", 20, "Maximum number of attempts to show (1-500)")

	if err := fs.Parse(args); err != nil {
		return auditTailOptions{}, err
	}
	if opts.Limit <= 0 || opts.Limit > 500 {
		return auditTailOptions{}, errors.New("--limit must be between 1 and 500")
	}
	return opts, nil
}

func runAuditTail(cmdCtx *commandContext, args []string) error {
	opts, err := parseAuditTailFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	db, err := connectAuditDB(cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx.Logger, db)

	attempts, err := data.NewLoginAuditRepo(db).Recent(ctx, data.RecentOptions{
		Tenant: opts.Tenant,
		Limit:  opts.Limit,
	})
	if err != nil {
		return err
	}
	return renderAttempts(os.Stdout, attempts)
}
