package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitestore/backend/internal/transport"
)

func TestRegisterLoginMeFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(http.MethodPost, "/api/auth/register", transport.RegisterRequest{
		Name:     "Jordan",
		Email:    "jordan@example.com",
		Password: "secret1",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	signed, ok := body["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, signed)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rec = env.doJSON(http.MethodGet, "/api/auth/me", nil, signed)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, "jordan@example.com", user["email"])
	_, exposed := user["password_hash"]
	assert.False(t, exposed, "password hash never leaves the API")

	rec = env.doJSON(http.MethodPost, "/api/auth/login", transport.LoginRequest{
		Email:    "jordan@example.com",
		Password: "secret1",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSON(http.MethodPost, "/api/auth/login", transport.LoginRequest{
		Email:    "jordan@example.com",
		Password: "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterEndpoint_Validation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(http.MethodPost, "/api/auth/register", transport.RegisterRequest{
		Name:     "Jordan",
		Email:    "not-an-email",
		Password: "secret1",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutEndpoint_ClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(http.MethodPost, "/api/auth/logout", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
}

func TestMeEndpoint_RejectsInactiveUser(t *testing.T) {
	env := newTestEnv(t)

	user := env.createUser("gone@example.com", "customer", "secret1")
	signed := env.tokenFor(user)

	rec := env.doJSON(http.MethodGet, "/api/auth/me", nil, signed)
	require.Equal(t, http.StatusOK, rec.Code)

	user.IsActive = false
	require.NoError(t, env.DB.Save(user).Error)

	rec = env.doJSON(http.MethodGet, "/api/auth/me", nil, signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileEndpoints(t *testing.T) {
	env := newTestEnv(t)

	user := env.createUser("me@example.com", "customer", "secret1")
	signed := env.tokenFor(user)

	name := "New Name"
	rec := env.doJSON(http.MethodPut, "/api/profile", transport.UpdateProfileRequest{Name: &name}, signed)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "New Name", decodeBody(t, rec)["user"].(map[string]any)["name"])

	rec = env.doJSON(http.MethodPut, "/api/profile/password", transport.ChangePasswordRequest{
		CurrentPassword: "secret1",
		NewPassword:     "secret2",
	}, signed)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSON(http.MethodPost, "/api/auth/login", transport.LoginRequest{
		Email:    "me@example.com",
		Password: "secret2",
	}, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSON(http.MethodGet, "/api/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFavoriteEndpoints(t *testing.T) {
	env := newTestEnv(t)

	category := env.createCategory("Electronics")
	product := env.createProduct(category, "Headphones", 100, 5)
	user := env.createUser("me@example.com", "customer", "secret1")
	signed := env.tokenFor(user)

	rec := env.doJSON(http.MethodPost, "/api/profile/favorites/"+product.ID.String(), nil, signed)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	favorites := decodeBody(t, rec)["user"].(map[string]any)["favorites"].([]any)
	assert.Len(t, favorites, 1)

	rec = env.doJSON(http.MethodDelete, "/api/profile/favorites/"+product.ID.String(), nil, signed)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSON(http.MethodGet, "/api/profile", nil, signed)
	require.Equal(t, http.StatusOK, rec.Code)
	_, has := decodeBody(t, rec)["user"].(map[string]any)["favorites"]
	assert.False(t, has, "empty favorites are omitted")
}
