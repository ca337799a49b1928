package handlers

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makeathera-byte/3layered/internal/models"
	"github.com/makeathera-byte/3layered/internal/mykafka"
	"github.com/makeathera-byte/3layered/internal/service/token"
)

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()

	db := initTestDB(t)
	return &AuthHandler{
		DB: db,
		Tokens: &token.TokenService{
			DB:            db,
			JWTSecret:     []byte("test-jwt-secret"),
			RefreshSecret: []byte("test-refresh-secret"),
		},
		Producer: &mykafka.Producer{},
	}
}

func TestRegister(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	c, rec := jsonContext(t, e, http.MethodPost, "/register", map[string]string{
		"username": "asha",
		"password": "long-enough-password",
	})
	require.NoError(t, h.Register(c))
	requireStatus(t, rec, http.StatusCreated)

	user := decode[models.User](t, rec)
	assert.Equal(t, "asha", user.Username)
	assert.Equal(t, "user", user.Role)
	assert.NotZero(t, user.ID)

	cookies := rec.Result().Cookies()
	names := make(map[string]bool, len(cookies))
	for _, ck := range cookies {
		names[ck.Name] = ck.Value != ""
	}
	assert.True(t, names["accessToken"], "access cookie set")
	assert.True(t, names["refreshToken"], "refresh cookie set")

	// Same username again conflicts.
	c2, rec2 := jsonContext(t, e, http.MethodPost, "/register", map[string]string{
		"username": "asha",
		"password": "long-enough-password",
	})
	require.NoError(t, h.Register(c2))
	requireStatus(t, rec2, http.StatusConflict)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	c, rec := jsonContext(t, e, http.MethodPost, "/register", map[string]string{
		"username": "asha",
		"password": "short",
	})
	require.NoError(t, h.Register(c))
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestLogin(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	c, rec := jsonContext(t, e, http.MethodPost, "/register", map[string]string{
		"username": "asha",
		"password": "long-enough-password",
	})
	require.NoError(t, h.Register(c))
	requireStatus(t, rec, http.StatusCreated)

	c2, rec2 := jsonContext(t, e, http.MethodPost, "/login", map[string]string{
		"username": "asha",
		"password": "long-enough-password",
	})
	require.NoError(t, h.Login(c2))
	requireStatus(t, rec2, http.StatusOK)

	// Wrong password and unknown user answer identically.
	c3, _ := jsonContext(t, e, http.MethodPost, "/login", map[string]string{
		"username": "asha",
		"password": "wrong-password",
	})
	err := h.Login(c3)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)

	c4, _ := jsonContext(t, e, http.MethodPost, "/login", map[string]string{
		"username": "nobody",
		"password": "long-enough-password",
	})
	err = h.Login(c4)
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestLogoutDropsCookies(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	c, rec := jsonContext(t, e, http.MethodPost, "/logout", nil)
	require.NoError(t, h.Logout(c))
	requireStatus(t, rec, http.StatusNoContent)

	for _, ck := range rec.Result().Cookies() {
		assert.Empty(t, ck.Value)
	}
}

func TestMe(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	require.NoError(t, h.DB.Create(&models.User{
		Username:     "asha",
		PasswordHash: "irrelevant",
		Role:         "user",
	}).Error)

	c, rec := jsonContext(t, e, http.MethodGet, "/me", nil)
	asUser(c, 1)
	require.NoError(t, h.Me(c))
	requireStatus(t, rec, http.StatusOK)

	user := decode[models.User](t, rec)
	assert.Equal(t, "asha", user.Username)
}
