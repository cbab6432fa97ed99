package auth

import (
	"testing"
	"time"

	"github.com/chantier/avancement/internal/config"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAPIKey(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Auth.APIKey.Keys = map[string]config.APIKeyDetails{
		HashAPIKey("active-key"):   {TenantID: "tenant_1", UserID: "user_1", IsActive: true},
		HashAPIKey("inactive-key"): {TenantID: "tenant_1", UserID: "user_2", IsActive: false},
	}

	tenantID, userID, ok := ValidateAPIKey(cfg, "active-key")
	assert.True(t, ok)
	assert.Equal(t, "tenant_1", tenantID)
	assert.Equal(t, "user_1", userID)

	_, _, ok = ValidateAPIKey(cfg, "inactive-key")
	assert.False(t, ok)

	_, _, ok = ValidateAPIKey(cfg, "unknown")
	assert.False(t, ok)

	_, _, ok = ValidateAPIKey(cfg, "")
	assert.False(t, ok)
}

func TestValidateToken(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Auth.Secret = "test-secret"

	t.Run("round trip", func(t *testing.T) {
		token, err := GenerateToken(cfg, "user_1", "tenant_1", time.Hour)
		require.NoError(t, err)

		claims, err := ValidateToken(cfg, token)
		require.NoError(t, err)
		assert.Equal(t, "user_1", claims.UserID)
		assert.Equal(t, "tenant_1", claims.TenantID)
	})

	t.Run("missing tenant falls back to default", func(t *testing.T) {
		token, err := GenerateToken(cfg, "user_1", "", time.Hour)
		require.NoError(t, err)

		claims, err := ValidateToken(cfg, token)
		require.NoError(t, err)
		assert.Equal(t, types.DefaultTenantID, claims.TenantID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := config.GetDefaultConfig()
		other.Auth.Secret = "other-secret"
		token, err := GenerateToken(other, "user_1", "tenant_1", time.Hour)
		require.NoError(t, err)

		_, err = ValidateToken(cfg, token)
		assert.True(t, ierr.IsPermissionDenied(err))
	})

	t.Run("expired", func(t *testing.T) {
		token, err := GenerateToken(cfg, "user_1", "tenant_1", -time.Minute)
		require.NoError(t, err)

		_, err = ValidateToken(cfg, token)
		assert.True(t, ierr.IsPermissionDenied(err))
	})
}
