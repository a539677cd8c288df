package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/elitestore/backend/internal/logging"
	"github.com/elitestore/backend/internal/transport"
)

func (h *CatalogHTTP) GetCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.get_categories")

	categories, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return serviceError(l, "get_categories_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"count":      len(categories),
		"categories": categories,
	})
}

func (h *CatalogHTTP) GetCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.get_category")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_category_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category id")
	}

	category, err := h.Svc.GetCategory(ctx, id)
	if err != nil {
		return serviceError(l, "get_category_error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"category": category,
	})
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create_category")

	var req transport.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_category_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	category, err := h.Svc.CreateCategory(ctx, req)
	if err != nil {
		return serviceError(l, "create_category_error", err)
	}

	l.Info("create_category_success", "category_id", category.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"success":  true,
		"category": category,
	})
}

func (h *CatalogHTTP) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.update_category")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("update_category_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category id")
	}

	var req transport.UpdateCategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_category_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	category, err := h.Svc.UpdateCategory(ctx, id, req)
	if err != nil {
		return serviceError(l, "update_category_error", err)
	}

	l.Info("update_category_success", "category_id", id)
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"category": category,
	})
}

func (h *CatalogHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete_category")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("delete_category_error", "status", 400, "reason", "invalid id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category id")
	}

	if err := h.Svc.DeleteCategory(ctx, id); err != nil {
		return serviceError(l, "delete_category_error", err)
	}

	l.Info("delete_category_success", "category_id", id)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Category deleted",
	})
}
