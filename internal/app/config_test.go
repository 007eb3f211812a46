package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Store.Driver)
	require.Equal(t, "ourhome", cfg.Auth.JWT.Issuer)
	require.Equal(t, 24*time.Hour, cfg.Auth.JWT.TTL)
	require.False(t, cfg.Email.SMTP.Enabled)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("OURHOME_SERVER_PORT", "9000")
	t.Setenv("OURHOME_STORE_DRIVER", "postgres")
	t.Setenv("OURHOME_AUTH_JWT_SECRET", "env-secret")
	t.Setenv("OURHOME_AUTH_JWT_ACCESS_TOKEN_TTL", "1h")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, "postgres", cfg.Store.Driver)
	require.Equal(t, "env-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, time.Hour, cfg.Auth.JWT.TTL)
}

func TestRecordStoreConfigDriverMapping(t *testing.T) {
	store := StoreConfig{Driver: " PostgreSQL ", Postgres: DBAuthConfig{
		Host:     "db.internal",
		Port:     5433,
		Database: "ourhome",
		Username: "svc",
		Password: "secret",
	}}

	cfg := store.RecordStoreConfig()
	require.Equal(t, "postgres", cfg.Driver)
	require.Equal(t, "db.internal", cfg.Host)
	require.Equal(t, 5433, cfg.Port)
	require.Equal(t, "ourhome", cfg.Name)
	require.Equal(t, "svc", cfg.User)
	require.Equal(t, "secret", cfg.Password)

	cfg = StoreConfig{}.RecordStoreConfig()
	require.Equal(t, "sqlite", cfg.Driver)
}

func TestEnsureAuthSecret(t *testing.T) {
	cfg := &Config{}
	generated, err := EnsureAuthSecret(cfg)
	require.NoError(t, err)
	require.True(t, generated)
	require.NotEmpty(t, cfg.Auth.JWT.Secret)

	// A configured secret is left untouched.
	previous := cfg.Auth.JWT.Secret
	generated, err = EnsureAuthSecret(cfg)
	require.NoError(t, err)
	require.False(t, generated)
	require.Equal(t, previous, cfg.Auth.JWT.Secret)

	other := &Config{}
	_, err = EnsureAuthSecret(other)
	require.NoError(t, err)
	require.NotEqual(t, cfg.Auth.JWT.Secret, other.Auth.JWT.Secret)
}

func TestJWTServiceConfigMapping(t *testing.T) {
	auth := AuthConfig{JWT: JWTSettings{Secret: "s", Issuer: "i", TTL: time.Minute}}
	jwtCfg := auth.JWTServiceConfig()
	require.Equal(t, "s", jwtCfg.Secret)
	require.Equal(t, "i", jwtCfg.Issuer)
	require.Equal(t, time.Minute, jwtCfg.AccessTokenTTL)
}
