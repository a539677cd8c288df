package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/elitestore/backend/internal/logging"
	authmw "github.com/elitestore/backend/internal/middleware/auth"
	"github.com/elitestore/backend/internal/repo"
	"github.com/elitestore/backend/internal/service"
	"github.com/elitestore/backend/internal/transport"
	"github.com/elitestore/backend/internal/util"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) GetUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get_users")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	limit := util.ParseIntDefault(c.QueryParam("limit"), 10)
	offset, limit := util.Calculate(page, limit)

	total, users, err := h.Svc.ListUsers(ctx, repo.UserFilter{
		Role:   c.QueryParam("role"),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return serviceError(l, "get_users_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"count":        len(users),
		"total":        total,
		"pages":        util.TotalPages(total, limit),
		"current_page": page,
		"users":        users,
	})
}

func (h *UserHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get_user")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_user_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	user, err := h.Svc.GetUser(ctx, id)
	if err != nil {
		return serviceError(l, "get_user_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    user,
	})
}

func (h *UserHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_user")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("update_user_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req transport.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_user_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.UpdateUser(ctx, id, req)
	if err != nil {
		return serviceError(l, "update_user_error", err)
	}

	l.Info("update_user_success", "user_id", id)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    user,
	})
}

func (h *UserHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete_user")

	requester, err := authmw.CurrentUser(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("delete_user_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	if err := h.Svc.DeleteUser(ctx, id, requester.ID); err != nil {
		return serviceError(l, "delete_user_error", err)
	}

	l.Info("delete_user_success", "user_id", id)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "User deleted",
	})
}
