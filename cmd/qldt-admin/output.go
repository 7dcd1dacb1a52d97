package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/qldt/qldt-api/internal/ports"
)

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func write(w io.Writer, args ...any) error {
	_, err := fmt.Fprint(w, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func printPending(w io.Writer, pending []string) error {
	if len(pending) == 0 {
		return writeln(w, "No pending migrations.")
	}
	if err := writef(w, "%d pending migration(s):\n", len(pending)); err != nil {
		return err
	}
	for _, v := range pending {
		if err := writef(w, "  %s\n", v); err != nil {
			return err
		}
	}
	return nil
}

func renderAttempts(w io.Writer, attempts []ports.LoginAttempt) error {
	if len(attempts) == 0 {
		return writeln(w, "No login attempts recorded.")
	}
	tw := newTable(w)
	if err := writeln(tw, "AT\tTENANT\tCLASS\tIDENTIFIER\tOUTCOME\tSECRETLESS\tDURATION"); err != nil {
		return err
	}
	for _, a := range attempts {
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
			formatTime(a.At), a.Tenant, a.Class, a.Identifier, a.Outcome, a.Secretless, a.Duration); err != nil {
			return err
		}
	}
	return tw.Flush()
}
