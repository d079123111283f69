package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mzhuravlev/fittrack/internal/authz"
	"github.com/mzhuravlev/fittrack/internal/token"
)

const actorKey = "actor"

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth rejects requests without a valid access token in the
// Authorization header and stores the resulting actor in the context.
func RequireAuth(tokens *token.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}
			claims, err := tokens.ValidateAccessToken(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			setActor(c, claims)
			return next(c)
		}
	}
}

// OptionalAuth sets the actor when a valid token is present and lets the
// request through as a guest otherwise. Used on endpoints that serve
// public resources.
func OptionalAuth(tokens *token.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := bearerToken(c); raw != "" {
				if claims, err := tokens.ValidateAccessToken(raw); err == nil {
					setActor(c, claims)
				}
			}
			return next(c)
		}
	}
}

// RequireAdmin stacks on RequireAuth.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if Actor(c).Role != authz.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin only")
		}
		return next(c)
	}
}

func setActor(c echo.Context, claims *token.AccessClaims) {
	c.Set(actorKey, authz.Actor{
		Username: claims.Subject,
		Role:     authz.ParseRole(claims.Role),
	})
	c.Set("displayName", claims.DisplayName)
}

// Actor returns the authenticated actor, or a guest actor when the
// request carried no valid token.
func Actor(c echo.Context) authz.Actor {
	if v, ok := c.Get(actorKey).(authz.Actor); ok {
		return v
	}
	return authz.Actor{Role: authz.RoleGuest}
}
