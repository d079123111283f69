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
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/things", ok)
	e.POST("/things", ok)
	e.POST("/session", ok)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetIssuesToken(t *testing.T) {
	e := newApp(Config{})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/things", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-CSRF-Token"))

	var found bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "XSRF-TOKEN" {
			found = true
			assert.NotEmpty(t, ck.Value)
		}
	}
	assert.True(t, found)
}

func TestProtectPathsScopeEnforcement(t *testing.T) {
	e := newApp(Config{ProtectPaths: []string{"/session"}})

	// unlisted mutating path passes without any token
	rec := serve(e, httptest.NewRequest(http.MethodPost, "/things", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// listed path demands the double-submit pair
	rec = serve(e, httptest.NewRequest(http.MethodPost, "/session", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/session", nil)
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
	req.Header.Set("X-CSRF-Token", "tok")
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionCookieGatesEnforcement(t *testing.T) {
	e := newApp(Config{SessionCookie: "sid"})

	// no session cookie, nothing to forge
	rec := serve(e, httptest.NewRequest(http.MethodPost, "/things", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/things", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})
	rec = serve(e, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/things", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
	req.Header.Set("X-CSRF-Token", "tok")
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSameOriginCheck(t *testing.T) {
	e := newApp(Config{EnforceSameOrigin: true})

	req := httptest.NewRequest(http.MethodPost, "/things", nil)
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
	req.Header.Set("X-CSRF-Token", "tok")
	req.Header.Set("Origin", "https://evil.example")
	rec := serve(e, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/things", nil)
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
	req.Header.Set("X-CSRF-Token", "tok")
	req.Header.Set("Origin", "http://"+req.Host)
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
