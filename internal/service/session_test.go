package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qldt/qldt-api/internal/data"
	domainauth "github.com/qldt/qldt-api/internal/domain/auth"
	mockauth "github.com/qldt/qldt-api/internal/mocks/auth"
)

var loginTime = time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

func newSessionFixture(t *testing.T) (*SessionService, *mockauth.MemorySessionStore, *data.FixedTimeProvider) {
	t.Helper()
	store := mockauth.NewMemorySessionStore()
	clock := data.NewFixedTimeProvider(loginTime)
	svc, err := NewSessionService(SessionServiceOptions{Store: store, MaxAge: 8 * time.Hour, Clock: clock})
	require.NoError(t, err)
	return svc, store, clock
}

func TestNewSessionService_RequiresStore(t *testing.T) {
	_, err := NewSessionService(SessionServiceOptions{})
	require.Error(t, err)

	svc, err := NewSessionService(SessionServiceOptions{Store: mockauth.NewMemorySessionStore()})
	require.NoError(t, err)
	assert.Equal(t, domainauth.DefaultSessionMaxAge, svc.MaxAge())
}

func TestSessionService_SaveAndCurrent(t *testing.T) {
	svc, _, clock := newSessionFixture(t)
	ctx := context.Background()
	principal := domainauth.Principal{UserID: "htkn_user", RoleLabel: "KHOA", ServerID: `HOST\INSTANCE1`}

	sess, err := svc.Save(ctx, principal)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, loginTime, sess.LoginAt)
	assert.Equal(t, loginTime.Add(8*time.Hour), sess.ExpiresAt)

	clock.AddTime(30 * time.Minute)
	cur, err := svc.Current(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, principal, cur.Principal)
	assert.Equal(t, loginTime.Add(30*time.Minute), cur.LastActivityAt)
	assert.Equal(t, loginTime, cur.LoginAt)
}

func TestSessionService_CurrentMissing(t *testing.T) {
	svc, _, _ := newSessionFixture(t)
	cur, err := svc.Current(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, cur)

	cur, err = svc.Current(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestSessionService_CurrentStoreError(t *testing.T) {
	svc, store, _ := newSessionFixture(t)
	store.GetErr = errors.New("redis: connection refused")

	_, err := svc.Current(context.Background(), "tok")
	require.Error(t, err)
}

// Touching a session must not extend its life; expiry counts from login.
func TestSessionService_ExpiryIgnoresActivity(t *testing.T) {
	svc, _, clock := newSessionFixture(t)
	ctx := context.Background()

	sess, err := svc.Save(ctx, domainauth.Principal{UserID: "u", ServerID: "db-new"})
	require.NoError(t, err)

	for range 7 {
		clock.AddTime(time.Hour)
		cur, err := svc.Current(ctx, sess.ID)
		require.NoError(t, err)
		require.NotNil(t, cur)
		assert.False(t, svc.IsExpired(*cur))
	}

	clock.AddTime(59 * time.Minute)
	cur, err := svc.Current(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, svc.IsExpired(*cur))

	clock.AddTime(time.Minute)
	cur, err = svc.Current(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, loginTime.Add(8*time.Hour), cur.LastActivityAt)
	assert.True(t, svc.IsExpired(*cur), "expired at exactly 8h after login despite recent activity")
}

func TestSessionService_ValidClearsExpired(t *testing.T) {
	svc, store, clock := newSessionFixture(t)
	ctx := context.Background()

	sess, err := svc.Save(ctx, domainauth.Principal{UserID: "u", ServerID: "db-new"})
	require.NoError(t, err)

	got, err := svc.Valid(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	clock.AddTime(9 * time.Hour)
	got, err = svc.Valid(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, store.Len())
}

func TestSessionService_Clear(t *testing.T) {
	svc, store, _ := newSessionFixture(t)
	ctx := context.Background()
	sess, err := svc.Save(ctx, domainauth.Principal{UserID: "u"})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, sess.ID))
	require.NoError(t, svc.Clear(ctx, ""))
	assert.Equal(t, 0, store.Len())
}
