package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pricewatch/console-auth/internal/api/middleware"
	"github.com/pricewatch/console-auth/internal/core/domain"
)

// ctxActor extracts the identity injected by the Auth middleware. Both values
// must be present; their absence means the route was mounted without Auth.
func ctxActor(c echo.Context) (id string, kind domain.ActorKind, err error) {
	id, _ = c.Get(middleware.ActorIDKey).(string)
	kind, _ = c.Get(middleware.ActorKindKey).(domain.ActorKind)
	if id == "" || kind == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, kind, nil
}
