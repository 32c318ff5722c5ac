package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/course_market/internal/logging"
	authmw "github.com/Skotchmaster/course_market/internal/middleware/auth"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/session"
	"github.com/Skotchmaster/course_market/internal/transport"
	"github.com/labstack/echo/v4"
)

type AuthHTTP struct {
	Svc     *service.AuthService
	Session *session.Carrier
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return badRequest("invalid body")
	}

	res, err := h.Svc.Register(ctx, service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return apiError(err)
	}

	h.Session.Attach(c, res.Token, res.ExpiresAt)
	return c.JSON(http.StatusCreated, authResponse(res))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return badRequest("invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return apiError(err)
	}

	h.Session.Attach(c, res.Token, res.ExpiresAt)
	return c.JSON(http.StatusOK, authResponse(res))
}

// LogOut only drops the client copy of the token. It succeeds with or
// without a session.
func (h *AuthHTTP) LogOut(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_logout")

	h.Session.Clear(c)
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	claims, ok := authmw.Claims(c)
	if !ok {
		return apiError(service.ErrUnauthenticated)
	}

	acc, err := h.Svc.Me(ctx, claims)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, transport.AccountResponse{Account: acc})
}

func authResponse(res *service.AuthResult) transport.AuthResponse {
	return transport.AuthResponse{Account: res.Account, Token: res.Token, ExpiresAt: res.ExpiresAt}
}
