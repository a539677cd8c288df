package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/elitestore/backend/internal/logging"
	authmw "github.com/elitestore/backend/internal/middleware/auth"
	"github.com/elitestore/backend/internal/models"
	"github.com/elitestore/backend/internal/repo"
	"github.com/elitestore/backend/internal/service"
	"github.com/elitestore/backend/internal/transport"
	"github.com/elitestore/backend/internal/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	user, err := authmw.CurrentUser(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.CreateOrder(ctx, req, user.ID)
	if err != nil {
		return serviceError(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"order":   order,
	})
}

func (h *OrderHTTP) GetMyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_my_orders")

	user, err := authmw.CurrentUser(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	orders, err := h.Svc.ListMyOrders(ctx, user.ID)
	if err != nil {
		return serviceError(l, "get_my_orders_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"count":   len(orders),
		"orders":  orders,
	})
}

func (h *OrderHTTP) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_orders")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	limit := util.ParseIntDefault(c.QueryParam("limit"), 10)
	offset, limit := util.Calculate(page, limit)

	f := repo.OrderFilter{
		Status:           models.OrderStatus(c.QueryParam("status")),
		IncludeCancelled: c.QueryParam("includeCancelled") == "true",
		Offset:           offset,
		Limit:            limit,
	}

	total, orders, err := h.Svc.ListOrders(ctx, f)
	if err != nil {
		return serviceError(l, "get_orders_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"count":        len(orders),
		"total":        total,
		"pages":        util.TotalPages(total, limit),
		"current_page": page,
		"orders":       orders,
	})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	user, err := authmw.CurrentUser(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_order_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	order, err := h.Svc.GetOrder(ctx, id, user)
	if err != nil {
		return serviceError(l, "get_order_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"order":   order,
	})
}

func (h *OrderHTTP) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("update_status_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	var req transport.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_status_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.UpdateStatus(ctx, id, models.OrderStatus(req.Status))
	if err != nil {
		return serviceError(l, "update_status_error", err)
	}

	l.Info("update_status_success", "order_id", id, "to", req.Status)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"order":   order,
	})
}

func (h *OrderHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete_order")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("delete_order_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	if err := h.Svc.DeleteOrder(ctx, id); err != nil {
		return serviceError(l, "delete_order_error", err)
	}

	l.Info("delete_order_success", "order_id", id)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Order deleted",
	})
}
