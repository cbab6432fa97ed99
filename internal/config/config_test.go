package config

import (
	"testing"

	"github.com/chantier/avancement/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultConfigIsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, types.ModeLocal, cfg.Deployment.Mode)
	assert.True(t, cfg.Cache.Enabled)
}

func TestValidateRejectsAuthWithoutCredentials(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Auth.Enabled = true
	assert.Error(t, cfg.Validate())

	cfg.Auth.Secret = "s3cret"
	assert.NoError(t, cfg.Validate())
}

func TestValidateSentry(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Sentry.Enabled = true
	assert.Error(t, cfg.Validate())

	cfg.Sentry.DSN = "https://public@sentry.example.com/1"
	cfg.Sentry.SampleRate = 1.5
	assert.Error(t, cfg.Validate())

	cfg.Sentry.SampleRate = 0.2
	assert.NoError(t, cfg.Validate())
}

func TestGetDSN(t *testing.T) {
	pg := PostgresConfig{
		Host:     "db",
		Port:     5433,
		User:     "u",
		Password: "p",
		DBName:   "chantier",
		SSLMode:  "disable",
	}
	assert.Equal(t, "user=u password=p dbname=chantier host=db port=5433 sslmode=disable", pg.GetDSN())
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("CHANTIER_SERVER_ADDRESS", ":9999")
	t.Setenv("CHANTIER_LOGGING_LEVEL", "warn")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, types.LogLevelWarn, cfg.Logging.Level)
}
