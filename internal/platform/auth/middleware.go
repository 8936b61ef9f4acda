package auth

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ampara/clinic/internal/platform/apperr"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller.
type Identity struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// Authenticate validates the bearer token on every request not skipped by
// skipper and stores the caller Identity in the request context.
func Authenticate(verifier TokenVerifier, skipper func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			tokenStr, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}
			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				return apperr.Unauthorized("invalid or expired token")
			}

			id := claims.Identity()
			c.Set("user_id", id.UserID)
			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))
			return next(c)
		}
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperr.Unauthorized("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperr.Unauthorized("invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func UserIDFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}
