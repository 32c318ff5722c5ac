package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/course_market/internal/logging"
	authmw "github.com/Skotchmaster/course_market/internal/middleware/auth"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/transport"
	"github.com/Skotchmaster/course_market/internal/util"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AdminHTTP struct {
	Svc *service.AuthService
}

func (h *AdminHTTP) ListAccounts(c echo.Context) error {
	ctx := c.Request().Context()
	claims, _ := authmw.Claims(c)

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	list, err := h.Svc.ListAccounts(ctx, claims, page, size)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, transport.AccountsPage{
		Items: list.Items,
		Page:  list.Page,
		Size:  list.Size,
		Total: list.Total,
		Stats: list.Stats,
	})
}

func (h *AdminHTTP) ChangeRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin_change_role")
	claims, _ := authmw.Claims(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid account id")
	}
	var req transport.RoleRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("change_role_error", "status", 400, "error", err)
		return badRequest("invalid body")
	}

	acc, err := h.Svc.ChangeRole(ctx, claims, id, req.Role)
	if err != nil {
		return apiError(err)
	}
	return c.JSON(http.StatusOK, transport.AccountResponse{Account: acc})
}
