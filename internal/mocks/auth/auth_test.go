package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/qldt/qldt-api/internal/domain/auth"
	"github.com/qldt/qldt-api/internal/ports"
)

func TestMemorySessionStore_SaveGetTouchDelete(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	login := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

	sess := domainauth.Session{ID: "tok-1", LoginAt: login, LastActivityAt: login}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	require.NoError(t, store.Touch(ctx, "tok-1", login.Add(time.Hour)))
	got, err = store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, login.Add(time.Hour), got.LastActivityAt)
	assert.Equal(t, login, got.LoginAt)

	require.NoError(t, store.Delete(ctx, "tok-1"))
	_, err = store.Get(ctx, "tok-1")
	require.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestMemorySessionStore_Errors(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.Error(t, store.Save(ctx, domainauth.Session{}))
	require.ErrorIs(t, store.Touch(ctx, "missing", time.Now()), domainauth.ErrSessionNotFound)

	store.GetErr = errors.New("redis down")
	_, err := store.Get(ctx, "any")
	require.EqualError(t, err, "redis down")
}

func TestRecordingAuditor(t *testing.T) {
	a := &RecordingAuditor{}
	require.NoError(t, a.Record(context.Background(), ports.LoginAttempt{Tenant: "IT Department", Outcome: "success"}))

	a.Err = errors.New("audit db down")
	require.Error(t, a.Record(context.Background(), ports.LoginAttempt{Tenant: "IT Department", Outcome: "identity_not_found"}))

	got := a.Attempts()
	require.Len(t, got, 2)
	assert.Equal(t, "identity_not_found", got[1].Outcome)
}
