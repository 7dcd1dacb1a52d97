package tenant

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolKey_String(t *testing.T) {
	assert.Equal(t, `HOST\INSTANCE1:staff`, NewPoolKey(`HOST\INSTANCE1`, ClassStaff).String())
	assert.Equal(t, "db01:restricted", NewPoolKey("db01", ClassRestricted).String())
	assert.NotEqual(t, NewPoolKey("db01", ClassStaff), NewPoolKey("db01", ClassRestricted))
}

func TestCredentialClass_Valid(t *testing.T) {
	assert.True(t, ClassStaff.Valid())
	assert.True(t, ClassRestricted.Valid())
	assert.False(t, CredentialClass("admin").Valid())
	assert.False(t, CredentialClass("").Valid())
}

func TestSplitServerID(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantHost     string
		wantInstance string
		wantErr      bool
	}{
		{name: "plain host", input: "db01.campus.local", wantHost: "db01.campus.local"},
		{name: "named instance", input: `HOST\INSTANCE1`, wantHost: "HOST", wantInstance: "INSTANCE1"},
		{name: "surrounding spaces", input: `  HOST\SITE2  `, wantHost: "HOST", wantInstance: "SITE2"},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
		{name: "missing instance", input: `HOST\`, wantErr: true},
		{name: "missing host", input: `\INSTANCE1`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, instance, err := SplitServerID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantInstance, instance)
		})
	}
}

func TestCredentialProfile_LogValueRedactsSecret(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("connect", "profile", CredentialProfile{
		Class:  ClassStaff,
		Server: "HOST",
		Login:  "app_staff",
		Secret: "super-secret",
	})

	assert.Contains(t, buf.String(), "app_staff")
	assert.NotContains(t, buf.String(), "super-secret")
}
