package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzhuravlev/fittrack/internal/middleware/csrf"
)

// newServerStackEnv wires the router behind the same middleware chain
// the server installs, CSRF included.
func newServerStackEnv(t *testing.T) *testEnv {
	t.Helper()

	e := echo.New()
	e.Pre(emw.RemoveTrailingSlash())
	e.Use(emw.Recover(), emw.RequestID())
	e.Use(csrf.Middleware(csrf.Config{
		ProtectPaths:  []string{"/api/v1/refresh"},
		SessionCookie: "refreshToken",
	}))
	return newTestEnvWithEcho(t, e)
}

func postJSON(t *testing.T, env *testEnv, path string, body any, cookies []*http.Cookie, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func TestBearerMutationsPassWithoutCSRFToken(t *testing.T) {
	env := newServerStackEnv(t)
	alice := env.seedUser(t, "alice", "pw1", "member")

	rec := env.do(t, http.MethodPost, "/api/v1/plans", alice, map[string]any{
		"title": "push pull legs",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/logout", alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshCSRFProtection(t *testing.T) {
	env := newServerStackEnv(t)
	env.seedUser(t, "alice", "pw1", "member")

	login := env.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"username": "alice",
		"password": "pw1",
	})
	require.Equal(t, http.StatusOK, login.Code)
	refresh := decodeJSON(t, login)["refresh_token"].(string)

	t.Run("body-based refresh needs no CSRF token", func(t *testing.T) {
		rec := postJSON(t, env, "/api/v1/refresh", map[string]string{
			"refresh_token": refresh,
		}, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		refresh = decodeJSON(t, rec)["refresh_token"].(string)
	})

	t.Run("cookie-based refresh without header is rejected", func(t *testing.T) {
		rec := postJSON(t, env, "/api/v1/refresh", map[string]string{}, []*http.Cookie{
			{Name: "refreshToken", Value: refresh},
		}, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("cookie-based refresh with double-submit token succeeds", func(t *testing.T) {
		// any request hands out the token; GETs echo it in the header
		get := env.do(t, http.MethodGet, "/api/v1/plans", "", nil)
		require.Equal(t, http.StatusOK, get.Code)
		csrfToken := get.Header().Get("X-CSRF-Token")
		require.NotEmpty(t, csrfToken)

		rec := postJSON(t, env, "/api/v1/refresh", map[string]string{}, []*http.Cookie{
			{Name: "refreshToken", Value: refresh},
			{Name: "XSRF-TOKEN", Value: csrfToken},
		}, map[string]string{"X-CSRF-Token": csrfToken})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
