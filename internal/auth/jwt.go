package auth

import (
	"fmt"
	"time"

	"github.com/chantier/avancement/internal/config"
	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/chantier/avancement/internal/types"
	"github.com/golang-jwt/jwt/v4"
)

// Claims identify the caller of a request
type Claims struct {
	UserID   string
	TenantID string
}

// ValidateToken verifies an HS256 bearer token signed with the configured
// secret and extracts its claims. A missing tenant_id claim maps to the
// default tenant.
func ValidateToken(cfg *config.Configuration, token string) (*Claims, error) {
	if cfg.Auth.Secret == "" {
		return nil, ierr.NewError("jwt secret not configured").
			WithHint("Bearer tokens are not accepted").
			Mark(ierr.ErrPermissionDenied)
	}

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"])).
				Mark(ierr.ErrPermissionDenied)
		}
		return []byte(cfg.Auth.Secret), nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token parse error").
			Mark(ierr.ErrPermissionDenied)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrPermissionDenied)
	}

	userID, userOk := claims["user_id"].(string)
	if !userOk || userID == "" {
		return nil, ierr.NewError("token missing user ID").
			WithHint("Token missing user ID").
			Mark(ierr.ErrPermissionDenied)
	}

	tenantID, tenantOk := claims["tenant_id"].(string)
	if !tenantOk || tenantID == "" {
		tenantID = types.DefaultTenantID
	}

	return &Claims{UserID: userID, TenantID: tenantID}, nil
}

// GenerateToken signs an HS256 token for userID valid for ttl
func GenerateToken(cfg *config.Configuration, userID, tenantID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":   userID,
		"tenant_id": tenantID,
		"exp":       now.Add(ttl).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Auth.Secret))
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to generate token").
			Mark(ierr.ErrSystem)
	}
	return signed, nil
}
