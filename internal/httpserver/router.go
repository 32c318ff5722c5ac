package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/course_market/internal/logging"
	authmw "github.com/Skotchmaster/course_market/internal/middleware/auth"
	"github.com/Skotchmaster/course_market/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/course_market/internal/middleware/logging"
	"github.com/Skotchmaster/course_market/internal/models"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	AuthHandler      *AuthHTTP
	OAuthHandler     *OAuthHTTP
	AdminHandler     *AdminHTTP
	DashboardHandler *DashboardHTTP

	Gate   *authmw.Gate
	DB     Pinger
	Logger *slog.Logger

	// CSRF is nil when the double-submit check is off.
	CSRF *csrf.Config
}

// New builds the echo instance with the middleware chain and all routes.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = HTTPErrorHandler

	logger := d.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	if d.CSRF != nil {
		e.Use(csrf.Middleware(*d.CSRF))
	}
	e.Use(d.Gate.Middleware)

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB != nil {
			if err := d.DB.Ping(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context()).Error("ready_check_failed", "error", err)
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	auth := e.Group("/api/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.LogOut)
	auth.GET("/me", d.AuthHandler.Me)

	if d.OAuthHandler != nil {
		auth.GET("/google", d.OAuthHandler.Start)
		auth.GET("/google/callback", d.OAuthHandler.Callback)
	}

	if d.AdminHandler != nil {
		admin := e.Group("/api/admin")
		admin.GET("/accounts", d.AdminHandler.ListAccounts)
		admin.PATCH("/accounts/:id/role", d.AdminHandler.ChangeRole)
	}

	if d.DashboardHandler != nil {
		e.GET("/dashboard", d.DashboardHandler.Home)
		for _, role := range []string{models.RoleStudent, models.RoleInstructor, models.RoleAdmin} {
			e.GET("/dashboard/"+role, d.DashboardHandler.Show(role))
		}
	}
}
