package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/elitestore/backend/internal/middleware/auth"
)

type Deps struct {
	Auth    *authmw.Middleware
	Orders  *OrderHTTP
	Catalog *CatalogHTTP
	Users   *UserHTTP
	Account *AuthHTTP
	Search  *SearchHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.Account.Register)
	auth.POST("/login", d.Account.Login)
	auth.POST("/logout", d.Account.Logout)
	auth.GET("/me", d.Account.Me, d.Auth.RequireAuth)

	profile := api.Group("/profile", d.Auth.RequireAuth)
	profile.GET("", d.Account.GetProfile)
	profile.PUT("", d.Account.UpdateProfile)
	profile.PUT("/password", d.Account.ChangePassword)
	profile.POST("/favorites/:id", d.Account.AddFavorite)
	profile.DELETE("/favorites/:id", d.Account.RemoveFavorite)

	users := api.Group("/users", d.Auth.RequireAuth, d.Auth.RequireAdmin)
	users.GET("", d.Users.GetUsers)
	users.GET("/:id", d.Users.GetUser)
	users.PUT("/:id", d.Users.UpdateUser)
	users.DELETE("/:id", d.Users.DeleteUser)

	products := api.Group("/products")
	products.GET("", d.Catalog.GetProducts, d.Auth.OptionalAuth)
	products.GET("/search", d.Search.Search)
	products.GET("/:id", d.Catalog.GetProduct)
	products.POST("", d.Catalog.CreateProduct, d.Auth.RequireAuth, d.Auth.RequireAdmin)
	products.PUT("/:id", d.Catalog.UpdateProduct, d.Auth.RequireAuth, d.Auth.RequireAdmin)
	products.DELETE("/:id", d.Catalog.DeleteProduct, d.Auth.RequireAuth, d.Auth.RequireAdmin)

	categories := api.Group("/categories")
	categories.GET("", d.Catalog.GetCategories)
	categories.GET("/:id", d.Catalog.GetCategory)
	categories.POST("", d.Catalog.CreateCategory, d.Auth.RequireAuth, d.Auth.RequireAdmin)
	categories.PUT("/:id", d.Catalog.UpdateCategory, d.Auth.RequireAuth, d.Auth.RequireAdmin)
	categories.DELETE("/:id", d.Catalog.DeleteCategory, d.Auth.RequireAuth, d.Auth.RequireAdmin)

	orders := api.Group("/orders", d.Auth.RequireAuth)
	orders.POST("", d.Orders.CreateOrder)
	orders.GET("/myorders", d.Orders.GetMyOrders)
	orders.GET("/:id", d.Orders.GetOrder)
	orders.GET("", d.Orders.GetOrders, d.Auth.RequireAdmin)
	orders.PUT("/:id/status", d.Orders.UpdateOrderStatus, d.Auth.RequireAdmin)
	orders.DELETE("/:id", d.Orders.DeleteOrder, d.Auth.RequireAdmin)
}
