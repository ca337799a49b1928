package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(cfg Config) *echo.Echo {
	e := echo.New()
	e.Use(Middleware(cfg))
	e.GET("/page", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.POST("/submit", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.POST("/webhook", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	return e
}

func tokenFromCookies(res *http.Response) string {
	for _, ck := range res.Cookies() {
		if ck.Name == "XSRF-TOKEN" {
			return ck.Value
		}
	}
	return ""
}

func TestGetIssuesToken(t *testing.T) {
	e := newApp(Config{})

	req := httptest.NewRequest(http.MethodGet, "/page", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, tokenFromCookies(rec.Result()))
	assert.NotEmpty(t, rec.Header().Get("X-CSRF-Token"))
}

func TestPostWithoutTokenRejected(t *testing.T) {
	e := newApp(Config{EnforceSameOrigin: false})

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPostWithMatchingTokenAccepted(t *testing.T) {
	e := newApp(Config{EnforceSameOrigin: false})

	get := httptest.NewRequest(http.MethodGet, "/page", nil)
	getRec := httptest.NewRecorder()
	e.ServeHTTP(getRec, get)
	tok := tokenFromCookies(getRec.Result())
	require.NotEmpty(t, tok)

	post := httptest.NewRequest(http.MethodPost, "/submit", nil)
	post.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: tok})
	post.Header.Set("X-CSRF-Token", tok)
	postRec := httptest.NewRecorder()
	e.ServeHTTP(postRec, post)

	assert.Equal(t, http.StatusOK, postRec.Code)
}

func TestCrossOriginPostRejected(t *testing.T) {
	e := newApp(Config{EnforceSameOrigin: true})

	get := httptest.NewRequest(http.MethodGet, "/page", nil)
	getRec := httptest.NewRecorder()
	e.ServeHTTP(getRec, get)
	tok := tokenFromCookies(getRec.Result())

	post := httptest.NewRequest(http.MethodPost, "/submit", nil)
	post.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: tok})
	post.Header.Set("X-CSRF-Token", tok)
	post.Header.Set("Origin", "https://evil.example.com")
	postRec := httptest.NewRecorder()
	e.ServeHTTP(postRec, post)

	assert.Equal(t, http.StatusForbidden, postRec.Code)
}

func TestSkipPathBypassesCheck(t *testing.T) {
	e := newApp(Config{SkipPaths: []string{"/webhook"}})

	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
