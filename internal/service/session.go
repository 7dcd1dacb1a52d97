package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/qldt/qldt-api/internal/domain/auth"
	"github.com/qldt/qldt-api/internal/ports"
)

// Clock returns the current time. data.TimeProvider satisfies it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Store  ports.SessionStore
	MaxAge time.Duration
	Clock  Clock
	Logger *slog.Logger
}

// SessionService issues and reads server-side sessions keyed by an opaque token.
type SessionService struct {
	store  ports.SessionStore
	maxAge time.Duration
	clock  Clock
	logger *slog.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(opts SessionServiceOptions) (*SessionService, error) {
	if opts.Store == nil {
		return nil, errors.New("session store is required")
	}
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = domainauth.DefaultSessionMaxAge
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{store: opts.Store, maxAge: maxAge, clock: clock, logger: logger}, nil
}

// MaxAge is the absolute session lifetime.
func (s *SessionService) MaxAge() time.Duration { return s.maxAge }

// Save creates a session for principal under a fresh token.
func (s *SessionService) Save(ctx context.Context, principal domainauth.Principal) (domainauth.Session, error) {
	now := s.clock.Now().UTC()
	sess := domainauth.Session{
		ID:             uuid.NewString(),
		Principal:      principal,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(s.maxAge),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Current returns the session for token and records activity on it. It returns
// (nil, nil) when there is no such session. Expiry is not checked here; see IsExpired.
func (s *SessionService) Current(ctx context.Context, token string) (*domainauth.Session, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := s.store.Get(ctx, token)
	if errors.Is(err, domainauth.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	now := s.clock.Now().UTC()
	if err := s.store.Touch(ctx, token, now); err != nil {
		if errors.Is(err, domainauth.ErrSessionNotFound) {
			return nil, nil
		}
		s.logger.WarnContext(ctx, "session touch failed", "error", err)
	} else {
		sess.LastActivityAt = now
	}
	return &sess, nil
}

// Clear removes the session for token.
func (s *SessionService) Clear(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// IsExpired reports whether sess has outlived the absolute lifetime counted from login.
func (s *SessionService) IsExpired(sess domainauth.Session) bool {
	return sess.ExpiredAt(s.clock.Now(), s.maxAge)
}

// Valid returns the current unexpired session for token, clearing it when expired.
func (s *SessionService) Valid(ctx context.Context, token string) (*domainauth.Session, error) {
	sess, err := s.Current(ctx, token)
	if err != nil || sess == nil {
		return nil, err
	}
	if s.IsExpired(*sess) {
		if err := s.Clear(ctx, token); err != nil {
			s.logger.WarnContext(ctx, "clear expired session failed", "error", err)
		}
		return nil, nil
	}
	return sess, nil
}
