package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/elitestore/backend/internal/models"
	"github.com/elitestore/backend/internal/token"
)

const userContextKey = "user"

type Middleware struct {
	DB        *gorm.DB
	JWTSecret []byte
}

// RequireAuth authenticates via the session cookie or a bearer header and
// loads the account, rejecting unknown and deactivated users.
func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := tokenFromRequest(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, no token")
		}

		userID, err := token.Parse(raw, m.JWTSecret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, token failed")
		}

		var user models.User
		if err := m.DB.WithContext(c.Request().Context()).Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		if !user.IsActive {
			return echo.NewHTTPError(http.StatusUnauthorized, "user account is inactive")
		}

		c.Set(userContextKey, &user)
		return next(c)
	}
}

// OptionalAuth loads the user when a valid token is present and continues
// anonymously otherwise. Public product listings use it to widen filters
// for administrators.
func (m *Middleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := tokenFromRequest(c)
		if raw == "" {
			return next(c)
		}

		userID, err := token.Parse(raw, m.JWTSecret)
		if err != nil {
			return next(c)
		}

		var user models.User
		if err := m.DB.WithContext(c.Request().Context()).Where("id = ?", userID).First(&user).Error; err == nil && user.IsActive {
			c.Set(userContextKey, &user)
		}
		return next(c)
	}
}

func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := CurrentUser(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, no token")
		}
		if !user.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "access denied, admin only")
		}
		return next(c)
	}
}

func CurrentUser(c echo.Context) (*models.User, error) {
	user, ok := c.Get(userContextKey).(*models.User)
	if !ok || user == nil {
		return nil, errors.New("no authenticated user in context")
	}
	return user, nil
}

func tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authz := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	return ""
}
