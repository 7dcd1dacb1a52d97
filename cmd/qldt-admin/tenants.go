package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/qldt/qldt-api/internal/bootstrap"
	"github.com/qldt/qldt-api/internal/domain/tenant"
	apperrors "github.com/qldt/qldt-api/internal/errors"
)

func runListTenants(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	return withTenantAccess(cmdCtx, func(access *bootstrap.TenantAccess) error {
		tenants, err := access.Directory.ListTenants(ctx)
		if err != nil {
			return err
		}
		return renderTenants(os.Stdout, tenants)
	})
}

func renderTenants(w io.Writer, tenants []tenant.Tenant) error {
	if len(tenants) == 0 {
		return writeln(w, "Directory is empty.")
	}
	tw := newTable(w)
	if err := writeln(tw, "BRANCH\tSERVER"); err != nil {
		return err
	}
	for _, t := range tenants {
		if err := writef(tw, "%s\t%s\n", t.BranchName, t.ServerID); err != nil {
			return err
		}
	}
	return tw.Flush()
}

type tenantFinder interface {
	FindByBranchName(ctx context.Context, name string) (tenant.Tenant, error)
}

type poolAcquirer interface {
	AcquirePool(ctx context.Context, serverID string, class tenant.CredentialClass) (*sql.DB, error)
}

type classCheck struct {
	Class    tenant.CredentialClass
	Duration time.Duration
	Err      error
}

type tenantCheck struct {
	Tenant tenant.Tenant
	Checks []classCheck
}

// Failed reports whether any class could not connect.
func (c tenantCheck) Failed() bool {
	for _, cc := range c.Checks {
		if cc.Err != nil {
			return true
		}
	}
	return false
}

func runCheckTenant(cmdCtx *commandContext, args []string) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return errors.New("usage: qldt-admin check-tenant <branch-name>")
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	return withTenantAccess(cmdCtx, func(access *bootstrap.TenantAccess) error {
		result, err := checkTenant(ctx, access.Directory, access.Pools, args[0])
		if err != nil {
			return err
		}
		if err := renderTenantCheck(os.Stdout, result); err != nil {
			return err
		}
		if result.Failed() {
			return fmt.Errorf("tenant %q is not fully reachable", result.Tenant.BranchName)
		}
		return nil
	})
}

// checkTenant resolves name and opens a pool for each credential class. Pool failures
// are recorded per class; only directory errors abort the check.
func checkTenant(ctx context.Context, dir tenantFinder, pools poolAcquirer, name string) (tenantCheck, error) {
	t, err := dir.FindByBranchName(ctx, name)
	if err != nil {
		return tenantCheck{}, err
	}

	result := tenantCheck{Tenant: t}
	for _, class := range []tenant.CredentialClass{tenant.ClassStaff, tenant.ClassRestricted} {
		start := time.Now()
		db, err := pools.AcquirePool(ctx, t.ServerID, class)
		if err == nil {
			err = db.PingContext(ctx)
		}
		result.Checks = append(result.Checks, classCheck{Class: class, Duration: time.Since(start), Err: err})
	}
	return result, nil
}

func renderTenantCheck(w io.Writer, result tenantCheck) error {
	if err := writef(w, "Tenant %s on %s\n", result.Tenant.BranchName, result.Tenant.ServerID); err != nil {
		return err
	}
	tw := newTable(w)
	if err := writeln(tw, "CLASS\tSTATUS\tDURATION\tDETAIL"); err != nil {
		return err
	}
	for _, c := range result.Checks {
		status, detail := "ok", "-"
		if c.Err != nil {
			status = "failed"
			detail = describeError(c.Err)
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\n", c.Class, status, c.Duration.Round(time.Millisecond), detail); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// describeError prefers the error code and the underlying cause over the public message.
func describeError(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Cause != nil {
			return fmt.Sprintf("%s: %v", appErr.Code, appErr.Cause)
		}
		return string(appErr.Code)
	}
	return err.Error()
}
