package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pricewatch/console-auth/internal/core/domain"
	"github.com/pricewatch/console-auth/internal/core/ports"
)

// Context keys set by Auth.
const (
	ActorIDKey   = "actor_id"
	ActorKindKey = "actor_kind"
	ClaimsKey    = "claims"
)

// Auth verifies the bearer access token and injects the actor identity into
// the context. Refresh tokens are not accepted as access credentials.
func Auth(tokens ports.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := tokens.Verify(strings.TrimSpace(parts[1]))
			if err != nil || claims.IsRefresh() {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ActorIDKey, claims.Subject)
			c.Set(ActorKindKey, claims.Kind)
			c.Set(ClaimsKey, claims)

			return next(c)
		}
	}
}

// RequireKind is the coarse actor-type check. It must run after Auth.
func RequireKind(kinds ...domain.ActorKind) echo.MiddlewareFunc {
	allowed := make(map[domain.ActorKind]struct{}, len(kinds))
	for _, k := range kinds {
		allowed[k] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			kind, _ := c.Get(ActorKindKey).(domain.ActorKind)
			if _, ok := allowed[kind]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
