package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TokenVerifier is the slice of the auth service the bearer gate needs.
type TokenVerifier interface {
	IsTokenBlacklisted(ctx context.Context, token string) bool
	VerifyAccessToken(token string) (uint64, error)
}

// BearerGate inspects the Authorization header on every request. A valid,
// non-blacklisted access token puts the user's id into the context under
// "user_id"; anything else — no header, bad prefix, expired or revoked
// token — leaves the request anonymous and lets it through. Routes that
// need an identity stack LoginRequired on top.
func BearerGate(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return next(c)
			}
			raw := strings.TrimPrefix(auth, "Bearer ")
			if raw == "" {
				return next(c)
			}
			// Revocation first, so a logged-out token never identifies
			// anyone even while its signature is still valid.
			if verifier.IsTokenBlacklisted(c.Request().Context(), raw) {
				return next(c)
			}
			userID, err := verifier.VerifyAccessToken(raw)
			if err != nil {
				return next(c)
			}
			c.Set("user_id", userID)
			c.Set("access_token", raw)
			return next(c)
		}
	}
}

// LoginRequired rejects requests that the bearer gate left anonymous.
func LoginRequired() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentUserID(c); !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
			}
			return next(c)
		}
	}
}

// CurrentUserID returns the authenticated user's id, if any.
func CurrentUserID(c echo.Context) (uint64, bool) {
	v, ok := c.Get("user_id").(uint64)
	return v, ok
}

// CurrentAccessToken returns the raw bearer token that authenticated the
// request, if any. Logout needs it to blacklist the token it arrived with.
func CurrentAccessToken(c echo.Context) (string, bool) {
	v, ok := c.Get("access_token").(string)
	return v, ok && v != ""
}
