package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/elitestore/backend/internal/db"
	"github.com/elitestore/backend/internal/hash"
	authmw "github.com/elitestore/backend/internal/middleware/auth"
	"github.com/elitestore/backend/internal/models"
	"github.com/elitestore/backend/internal/repo"
	"github.com/elitestore/backend/internal/service"
	"github.com/elitestore/backend/internal/token"
)

type testEnv struct {
	T         *testing.T
	E         *echo.Echo
	DB        *gorm.DB
	Repo      *repo.GormRepo
	JWTSecret []byte
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	store := repo.New(gdb)
	secret := []byte("test-jwt-secret")

	catalogSvc := &service.CatalogService{Repo: store}
	orderSvc := &service.OrderService{Repo: store}
	authSvc := &service.AuthService{Repo: store, JWTSecret: secret}
	userSvc := &service.UserService{Repo: store}

	e := echo.New()
	Register(e, &Deps{
		Auth:    &authmw.Middleware{DB: gdb, JWTSecret: secret},
		Orders:  &OrderHTTP{Svc: orderSvc},
		Catalog: &CatalogHTTP{Svc: catalogSvc},
		Users:   &UserHTTP{Svc: userSvc},
		Account: &AuthHTTP{Svc: authSvc},
		Search:  &SearchHTTP{Index: "products"},
	})

	return &testEnv{T: t, E: e, DB: gdb, Repo: store, JWTSecret: secret}
}

func (env *testEnv) createUser(email, role, password string) *models.User {
	env.T.Helper()

	passwordHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)

	user := &models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(env.T, env.Repo.CreateUser(context.Background(), user))
	return user
}

func (env *testEnv) tokenFor(user *models.User) string {
	env.T.Helper()

	signed, err := token.Sign(user.ID, env.JWTSecret, time.Hour)
	require.NoError(env.T, err)
	return signed
}

func (env *testEnv) createCategory(name string) *models.Category {
	env.T.Helper()

	category := &models.Category{Name: name, Slug: service.Slugify(name)}
	require.NoError(env.T, env.Repo.CreateCategory(context.Background(), category))
	return category
}

func (env *testEnv) createProduct(category *models.Category, title string, price float64, stock int64) *models.Product {
	env.T.Helper()

	product := &models.Product{
		Title:       title,
		Description: title + " description",
		Price:       price,
		CategoryID:  category.ID,
		Stock:       stock,
	}
	require.NoError(env.T, env.Repo.CreateProduct(context.Background(), product))
	return product
}

// doJSON routes the request through the full echo router, middleware included.
func (env *testEnv) doJSON(method, path string, body any, bearer string) *httptest.ResponseRecorder {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
