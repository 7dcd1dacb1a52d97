package bootstrap

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: " INFO ", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "trace", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyLogLevel(t *testing.T) {
	t.Cleanup(func() { logLevel.Set(slog.LevelInfo) })

	require.NoError(t, ApplyLogLevel("warn"))
	assert.Equal(t, slog.LevelWarn, logLevel.Level())

	require.Error(t, ApplyLogLevel("loud"))
	assert.Equal(t, slog.LevelWarn, logLevel.Level(), "invalid level leaves the current one")
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DIRECTORY_PRIMARY_SERVER", `HOST\INSTANCE1`)
	t.Setenv("TENANT_DB_STAFF_LOGIN", "app_staff")
	t.Setenv("TENANT_DB_RESTRICTED_LOGIN", "app_student")
	t.Setenv("SESSION_MAX_AGE", "0s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, `HOST\INSTANCE1`, cfg.Directory.PrimaryServer)
	assert.Equal(t, "8h0m0s", cfg.Session.MaxAge.String(), "sanitize restores the default lifetime")
}
