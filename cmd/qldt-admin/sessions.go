package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	redisadapter "github.com/qldt/qldt-api/internal/adapters/redis"
	domainauth "github.com/qldt/qldt-api/internal/domain/auth"
)

type sessionLister interface {
	List(ctx context.Context) ([]domainauth.Session, error)
}

type sessionClearer interface {
	DeleteAll(ctx context.Context) (int, error)
}

type listSessionsOptions struct {
	Tenant string
}

func parseListSessionsFlags(args []string) (listSessionsOptions, error) {
	fs := flag.NewFlagSet("list-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts listSessionsOptions
	fs.StringVar(&opts.Tenant, "tenant", "", "Only list sessions bound to this department")
	if err := fs.Parse(args); err != nil {
		return listSessionsOptions{}, err
	}
	return opts, nil
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseListSessionsFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	client, err := connectRedis(cmdCtx)
	if err != nil {
		return err
	}
	defer closeRedis(cmdCtx.Logger, client)

	store := redisadapter.NewSessionStoreWithPrefix(client, cmdCtx.Config.Session.KeyPrefix)
	return listSessions(ctx, store, opts, os.Stdout)
}

func listSessions(ctx context.Context, store sessionLister, opts listSessionsOptions, w io.Writer) error {
	sessions, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if opts.Tenant != "" {
		filtered := sessions[:0]
		for _, s := range sessions {
			if strings.EqualFold(s.Principal.Tenant.BranchName, opts.Tenant) {
				filtered = append(filtered, s)
			}
		}
		sessions = filtered
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].LoginAt.Before(sessions[j].LoginAt) })
	return renderSessions(w, sessions)
}

// renderSessions prints a truncated token so the output cannot be replayed as a cookie.
func renderSessions(w io.Writer, sessions []domainauth.Session) error {
	if len(sessions) == 0 {
		return writeln(w, "No active sessions.")
	}
	tw := newTable(w)
	if err := writeln(tw, "TOKEN\tUSER\tROLE\tTENANT\tRESTRICTED\tLOGIN\tLAST ACTIVITY\tEXPIRES"); err != nil {
		return err
	}
	for _, s := range sessions {
		p := s.Principal
		if err := writef(tw, "%s\t%s\t%s\t%s\t%t\t%s\t%s\t%s\n",
			shortToken(s.ID), p.UserID, p.RoleLabel, p.Tenant.BranchName, p.Restricted,
			formatTime(s.LoginAt), formatTime(s.LastActivityAt), formatTime(s.ExpiresAt)); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(w, "%d session(s)\n", len(sessions))
}

func shortToken(id string) string {
	const keep = 8
	if len(id) <= keep {
		return id
	}
	return id[:keep] + "..."
}

type clearSessionsOptions struct {
	Yes bool
}

func parseClearSessionsFlags(args []string) (clearSessionsOptions, error) {
	fs := flag.NewFlagSet("clear-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts clearSessionsOptions
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return clearSessionsOptions{}, err
	}
	return opts, nil
}

func runClearSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearSessionsFlags(args)
	if err != nil {
		return err
	}
	if !opts.Yes {
		if err := confirm(os.Stdin, os.Stdout, "About to delete every stored session; all users will be signed out."); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	client, err := connectRedis(cmdCtx)
	if err != nil {
		return err
	}
	defer closeRedis(cmdCtx.Logger, client)

	store := redisadapter.NewSessionStoreWithPrefix(client, cmdCtx.Config.Session.KeyPrefix)
	return clearSessions(ctx, store, os.Stdout)
}

func clearSessions(ctx context.Context, store sessionClearer, w io.Writer) error {
	start := time.Now()
	removed, err := store.DeleteAll(ctx)
	if err != nil {
		return fmt.Errorf("clear sessions after removing %d: %w", removed, err)
	}
	return writef(w, "Removed %d session(s) in %s\n", removed, time.Since(start).Round(time.Millisecond))
}

var errAborted = errors.New("aborted by user")

func confirm(in io.Reader, out io.Writer, warning string) error {
	if err := writeln(out, warning); err != nil {
		return fmt.Errorf("print confirmation warning: %w", err)
	}
	if err := write(out, "Continue? [y/N]: "); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	resp, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: read confirmation: %w", errAborted, err)
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp == "y" || resp == "yes" {
		return nil
	}
	return errAborted
}
