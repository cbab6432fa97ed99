package middleware

import (
	"strings"

	"github.com/chantier/avancement/internal/auth"
	"github.com/chantier/avancement/internal/config"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/logger"
	"github.com/chantier/avancement/internal/types"
	"github.com/gin-gonic/gin"
)

// AuthenticateMiddleware identifies the caller from either:
// 1. an API key in the configured header (x-api-key by default)
// 2. a JWT in the Authorization header as a Bearer token
// and stores the tenant and user ids in the request context. When auth is
// disabled every request acts as the configured default user.
func AuthenticateMiddleware(cfg *config.Configuration, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Auth.Enabled {
			setIdentity(c, types.DefaultTenantID, cfg.Auth.DefaultUserID)
			c.Next()
			return
		}

		if key := c.GetHeader(cfg.Auth.APIKey.Header); key != "" {
			tenantID, userID, valid := auth.ValidateAPIKey(cfg, key)
			if !valid || tenantID == "" || userID == "" {
				log.Debugw("invalid api key")
				abortUnauthorized(c, "Invalid API key")
				return
			}
			setIdentity(c, tenantID, userID)
			c.Next()
			return
		}

		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			abortUnauthorized(c, "Unauthorized")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := auth.ValidateToken(cfg, tokenString)
		if err != nil {
			log.Debugw("failed to validate token", "error", err)
			abortUnauthorized(c, "Invalid token")
			return
		}
		if claims.UserID == "" {
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		setIdentity(c, claims.TenantID, claims.UserID)
		c.Next()
	}
}

func setIdentity(c *gin.Context, tenantID, userID string) {
	ctx := types.SetTenantID(c.Request.Context(), tenantID)
	ctx = types.SetUserID(ctx, userID)
	c.Request = c.Request.WithContext(ctx)
}

func abortUnauthorized(c *gin.Context, hint string) {
	c.Error(ierr.NewError("unauthenticated request").
		WithHint(hint).
		Mark(ierr.ErrUnauthorized))
	c.Abort()
}
