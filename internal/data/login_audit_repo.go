package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qldt/qldt-api/internal/domain/tenant"
	apperrors "github.com/qldt/qldt-api/internal/errors"
	"github.com/qldt/qldt-api/internal/ports"
)

// LoginAuditRepo stores login attempts in Postgres.
type LoginAuditRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ ports.LoginAuditor = (*LoginAuditRepo)(nil)

// NewLoginAuditRepo creates a LoginAuditRepo with real time provider.
func NewLoginAuditRepo(db *sql.DB) *LoginAuditRepo {
	return &LoginAuditRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewLoginAuditRepoWithTimeProvider creates a LoginAuditRepo with a custom time provider (useful for tests).
func NewLoginAuditRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *LoginAuditRepo {
	return &LoginAuditRepo{DB: db, timeProvider: tp}
}

// Record inserts one attempt. A zero At is stamped with the current time.
func (r *LoginAuditRepo) Record(ctx context.Context, attempt ports.LoginAttempt) error {
	if !attempt.Class.Valid() {
		return apperrors.ValidationField("class", "unknown credential class")
	}
	if strings.TrimSpace(attempt.Outcome) == "" {
		return apperrors.ValidationField("outcome", "outcome is required")
	}
	at := attempt.At
	if at.IsZero() {
		at = r.timeProvider.Now()
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO login_audit (
			id, tenant, credential_class, identifier, outcome, secretless, duration_ms, attempted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.NewString(),
		attempt.Tenant,
		string(attempt.Class),
		attempt.Identifier,
		attempt.Outcome,
		attempt.Secretless,
		attempt.Duration.Milliseconds(),
		at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert login audit: %w", apperrors.MapDBError(err))
	}
	return nil
}

// RecentOptions filters Recent.
type RecentOptions struct {
	Tenant string
	Limit  int
}

// Recent lists the newest attempts first.
func (r *LoginAuditRepo) Recent(ctx context.Context, opts RecentOptions) (out []ports.LoginAttempt, err error) {
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `SELECT tenant, credential_class, identifier, outcome, secretless, duration_ms, attempted_at
		FROM login_audit`
	args := []any{}
	if t := strings.TrimSpace(opts.Tenant); t != "" {
		query += ` WHERE tenant = $1`
		args = append(args, t)
	}
	query += fmt.Sprintf(` ORDER BY attempted_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query login audit: %w", apperrors.MapDBError(err))
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close login audit rows: %w", cerr))
		}
	}()

	for rows.Next() {
		var (
			a          ports.LoginAttempt
			class      string
			durationMS int64
		)
		if err := rows.Scan(&a.Tenant, &class, &a.Identifier, &a.Outcome, &a.Secretless, &durationMS, &a.At); err != nil {
			return nil, fmt.Errorf("scan login audit: %w", err)
		}
		a.Class = tenant.CredentialClass(class)
		a.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate login audit: %w", err)
	}
	return out, nil
}
