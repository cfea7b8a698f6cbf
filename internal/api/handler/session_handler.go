package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pricewatch/console-auth/internal/api/metrics"
	"github.com/pricewatch/console-auth/internal/core/domain"
	"github.com/pricewatch/console-auth/internal/core/ports"
)

// SessionHandler exposes the session use cases over HTTP. Domain errors are
// returned unchanged for the central error handler to map.
type SessionHandler struct {
	service ports.SessionService
	nowFunc func() time.Time
}

func NewSessionHandler(service ports.SessionService) *SessionHandler {
	return &SessionHandler{service: service, nowFunc: time.Now}
}

// Login authenticates an administrator or operative user.
//
// @Summary      Login
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials and actor kind"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /v1/sessions/login [post]
func (h *SessionHandler) Login(c echo.Context) (err error) {
	defer observe("login", time.Now(), &err)

	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.Login(c.Request().Context(), ports.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Kind:     normalizedKind(req.ActorKind),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(res, h.nowFunc()))
}

// Refresh exchanges a refresh token for a new token pair.
//
// @Summary      Refresh session
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/sessions/refresh [post]
func (h *SessionHandler) Refresh(c echo.Context) (err error) {
	defer observe("refresh", time.Now(), &err)

	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.Refresh(c.Request().Context(), ports.RefreshInput{
		RefreshToken: req.RefreshToken,
		Kind:         normalizedKind(req.ActorKind),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(res, h.nowFunc()))
}

// Logout ends the caller's session.
//
// @Summary      Logout
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        all  query     bool  false  "Invalidate all sessions"
// @Success      200  {object}  logoutResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/sessions [delete]
func (h *SessionHandler) Logout(c echo.Context) (err error) {
	defer observe("logout", time.Now(), &err)

	actorID, kind, err := ctxActor(c)
	if err != nil {
		return err
	}
	all := false
	if raw := c.QueryParam("all"); raw != "" {
		if all, err = strconv.ParseBool(raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "all must be a boolean")
		}
	}

	res, err := h.service.Logout(c.Request().Context(), ports.LogoutInput{ActorID: actorID, Kind: kind, AllSessions: all})
	if err != nil {
		return err
	}
	metrics.SessionsInvalidatedTotal.WithLabelValues(string(kind)).Add(float64(res.SessionsInvalidated))
	return c.JSON(http.StatusOK, logoutResponse{Message: res.Message, SessionsInvalidated: res.SessionsInvalidated})
}

// RegisterOperative creates an operative user and opens its first session.
//
// @Summary      Register operative user
// @Tags         actors
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "New operative user"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/operatives [post]
func (h *SessionHandler) RegisterOperative(c echo.Context) (err error) {
	defer observe("register_user", time.Now(), &err)

	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.RegisterUser(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSessionResponse(res, h.nowFunc()))
}

// RegisterAdmin creates an administrator and opens its first session.
//
// @Summary      Register administrator
// @Tags         actors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerRequest  true  "New administrator"
// @Success      201   {object}  sessionResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/admins [post]
func (h *SessionHandler) RegisterAdmin(c echo.Context) (err error) {
	defer observe("register_admin", time.Now(), &err)

	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.RegisterAdmin(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSessionResponse(res, h.nowFunc()))
}

// Disable blocks an actor and ends its session.
//
// @Summary      Disable actor
// @Tags         actors
// @Produce      json
// @Security     BearerAuth
// @Param        kind  path      string  true  "admin or operative"
// @Param        id    path      string  true  "Actor id"
// @Success      200   {object}  actorResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/actors/{kind}/{id}/disable [post]
func (h *SessionHandler) Disable(c echo.Context) error {
	return h.setEnabled(c, false)
}

// Enable lifts a previous Disable. The actor must log in again.
//
// @Summary      Enable actor
// @Tags         actors
// @Produce      json
// @Security     BearerAuth
// @Param        kind  path      string  true  "admin or operative"
// @Param        id    path      string  true  "Actor id"
// @Success      200   {object}  actorResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/actors/{kind}/{id}/enable [post]
func (h *SessionHandler) Enable(c echo.Context) error {
	return h.setEnabled(c, true)
}

func (h *SessionHandler) setEnabled(c echo.Context, enabled bool) (err error) {
	op := "disable"
	if enabled {
		op = "enable"
	}
	defer observe(op, time.Now(), &err)

	kind, err := domain.ParseActorKind(c.Param("kind"))
	if err != nil {
		return err
	}
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	res, err := h.service.SetEnabled(c.Request().Context(), ports.SetEnabledInput{ActorID: id, Kind: kind, Enabled: enabled})
	if err != nil {
		return err
	}
	metrics.SessionsInvalidatedTotal.WithLabelValues(string(kind)).Add(float64(res.SessionsInvalidated))
	return c.JSON(http.StatusOK, toActorResponse(res.Actor))
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}

func observe(operation string, start time.Time, err *error) {
	metrics.Observe(operation, start, *err)
}
