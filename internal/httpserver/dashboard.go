package httpserver

import (
	"net/http"

	authmw "github.com/Skotchmaster/course_market/internal/middleware/auth"
	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/routes"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/labstack/echo/v4"
)

type DashboardHTTP struct {
	Svc *service.AuthService
}

// Home sends the caller to the dashboard of their role.
func (h *DashboardHTTP) Home(c echo.Context) error {
	claims, ok := authmw.Claims(c)
	if !ok {
		return apiError(service.ErrUnauthenticated)
	}
	return c.Redirect(http.StatusSeeOther, routes.DashboardPath(claims.Role))
}

func (h *DashboardHTTP) Show(role string) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := authmw.Claims(c)
		if !ok {
			return apiError(service.ErrUnauthenticated)
		}
		acc, err := h.Svc.Me(c.Request().Context(), claims)
		if err != nil {
			return apiError(err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"dashboard": role,
			"account":   acc,
			"sections":  sections(role),
		})
	}
}

func sections(role string) []string {
	switch role {
	case models.RoleAdmin:
		return []string{"accounts", "courses", "reports"}
	case models.RoleInstructor:
		return []string{"my_courses", "students", "earnings"}
	default:
		return []string{"enrolled_courses", "progress", "certificates"}
	}
}
