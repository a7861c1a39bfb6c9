package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dkurbatov/learning_platform/internal/tokens"
)

const identityKey = "identity"

// Identity is the authenticated caller, decoded from the access token.
// The role is the one embedded at mint time.
type Identity struct {
	UserID uint
	Role   string
}

type Gate struct {
	JWTSecret []byte
}

// RequireAuth authenticates a request from its access token, taken from
// the accessToken cookie or an Authorization: Bearer header. Missing or
// expired tokens are 401; malformed tokens and bad signatures are 403.
func (g *Gate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := extractToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.ParseAccess(raw, g.JWTSecret)
		if err != nil {
			if errors.Is(err, tokens.ErrTokenExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "access token expired")
			}
			return echo.NewHTTPError(http.StatusForbidden, "invalid access token")
		}
		userID, err := claims.UserID()
		if err != nil {
			return echo.NewHTTPError(http.StatusForbidden, "invalid access token")
		}

		c.Set(identityKey, Identity{UserID: userID, Role: claims.Role})
		return next(c)
	}
}

// RequireRoles rejects authenticated callers whose role is not in the
// allowed set. Ownership checks stay in the handlers.
func (g *Gate) RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := CurrentIdentity(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}
			for _, r := range roles {
				if id.Role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}

func CurrentIdentity(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

func extractToken(c echo.Context) string {
	if cookie, err := c.Cookie(tokens.AccessCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if after, found := strings.CutPrefix(header, "Bearer "); found {
		return after
	}
	return ""
}
