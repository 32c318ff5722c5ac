package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/course_market/internal/logging"
	"github.com/Skotchmaster/course_market/internal/oauth"
	"github.com/Skotchmaster/course_market/internal/routes"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/session"
	"github.com/labstack/echo/v4"
)

type OAuthHTTP struct {
	Svc      *service.AuthService
	Provider oauth.Provider
	State    *oauth.StateStore
	Session  *session.Carrier
}

func (h *OAuthHTTP) Start(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "oauth_start", "provider", h.Provider.Name())

	returnTo := c.QueryParam("redirect")
	if !routes.LocalRedirect(returnTo) {
		returnTo = ""
	}
	state, err := h.State.Begin(c, returnTo)
	if err != nil {
		l.Error("oauth_start_error", "status", 500, "error", err)
		return apiError(err)
	}
	return c.Redirect(http.StatusFound, h.Provider.AuthCodeURL(state))
}

func (h *OAuthHTTP) Callback(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "oauth_callback", "provider", h.Provider.Name())

	returnTo, err := h.State.Finish(c)
	if err != nil {
		l.Warn("oauth_callback_rejected", "status", 400, "reason", "state", "error", err)
		return badRequest("invalid sign-in state")
	}
	if e := c.QueryParam("error"); e != "" {
		l.Info("oauth_callback_rejected", "status", 401, "reason", "provider error", "error", e)
		return apiError(service.ErrUnauthenticated)
	}

	id, err := h.Provider.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		l.Warn("oauth_callback_rejected", "status", 401, "reason", "exchange", "error", err)
		return apiError(service.ErrUnauthenticated)
	}

	res, err := h.Svc.FederatedSignIn(ctx, *id)
	if err != nil {
		return apiError(err)
	}

	h.Session.Attach(c, res.Token, res.ExpiresAt)
	if !routes.LocalRedirect(returnTo) {
		returnTo = routes.DashboardPath(res.Account.Role)
	}
	return c.Redirect(http.StatusSeeOther, returnTo)
}
