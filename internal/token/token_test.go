package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	userID := uuid.New()

	raw, err := Sign(userID, secret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	subject, err := Parse(raw, secret)
	require.NoError(t, err)
	assert.Equal(t, userID, subject)
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	raw, err := Sign(uuid.New(), []byte("right"), time.Hour)
	require.NoError(t, err)

	_, err = Parse(raw, []byte("wrong"))
	require.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	raw, err := Sign(uuid.New(), secret, -time.Minute)
	require.NoError(t, err)

	_, err = Parse(raw, secret)
	require.Error(t, err)
}

func TestParse_RejectsUnexpectedAlgorithm(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	claims := jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = Parse(raw, secret)
	require.Error(t, err)
}

func TestParse_Garbage(t *testing.T) {
	t.Parallel()

	_, err := Parse("not-a-jwt", []byte("secret"))
	require.Error(t, err)
}
