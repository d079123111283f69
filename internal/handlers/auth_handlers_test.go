package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzhuravlev/fittrack/internal/models"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/register", "", map[string]string{
		"username":     "alice",
		"display_name": "Alice",
		"password":     "pw1secret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeJSON(t, rec)
	require.NotEmpty(t, resp["access_token"])
	require.NotEmpty(t, resp["refresh_token"])

	var user models.User
	require.NoError(t, env.db.Where("username = ?", "alice").First(&user).Error)
	assert.Equal(t, "member", user.Role)
	assert.NotEqual(t, "pw1secret", user.PasswordHash)

	// registering creates a live session
	var sessions int64
	require.NoError(t, env.db.Model(&models.Session{}).Where("username = ?", "alice").Count(&sessions).Error)
	assert.EqualValues(t, 1, sessions)

	// duplicate username is rejected
	rec = env.do(t, http.MethodPost, "/api/v1/register", "", map[string]string{
		"username": "alice",
		"password": "otherpassword",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "pw1", "member")

	rec := env.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"username": "alice",
		"password": "pw1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeJSON(t, rec)
	access, _ := resp["access_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, resp["refresh_token"])

	claims, err := env.tokens.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "member", claims.Role)

	// only the refresh token goes into a cookie, the access token
	// travels in the body
	var cookieNames []string
	for _, ck := range rec.Result().Cookies() {
		cookieNames = append(cookieNames, ck.Name)
	}
	assert.Contains(t, cookieNames, "refreshToken")
	assert.NotContains(t, cookieNames, "accessToken")
}

func TestLogin_UniformFailure(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "pw1", "member")

	wrongPassword := env.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"username": "alice",
		"password": "nope",
	})
	unknownUser := env.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"username": "nobody",
		"password": "nope",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	// identical responses, so usernames cannot be probed
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
}

func TestRefresh_RotatesToken(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "pw1", "member")

	login := env.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"username": "alice", "password": "pw1",
	})
	require.Equal(t, http.StatusOK, login.Code)
	oldRefresh := decodeJSON(t, login)["refresh_token"].(string)

	refreshed := env.do(t, http.MethodPost, "/api/v1/refresh", "", map[string]string{
		"refresh_token": oldRefresh,
	})
	require.Equal(t, http.StatusOK, refreshed.Code)
	newRefresh := decodeJSON(t, refreshed)["refresh_token"].(string)
	assert.NotEqual(t, oldRefresh, newRefresh)

	// the rotated-out token is dead
	replayed := env.do(t, http.MethodPost, "/api/v1/refresh", "", map[string]string{
		"refresh_token": oldRefresh,
	})
	assert.Equal(t, http.StatusUnauthorized, replayed.Code)

	// the new one still works
	again := env.do(t, http.MethodPost, "/api/v1/refresh", "", map[string]string{
		"refresh_token": newRefresh,
	})
	assert.Equal(t, http.StatusOK, again.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "pw1", "member")

	login := env.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"username": "alice", "password": "pw1",
	})
	require.Equal(t, http.StatusOK, login.Code)
	resp := decodeJSON(t, login)
	access := resp["access_token"].(string)
	refresh := resp["refresh_token"].(string)

	out := env.do(t, http.MethodPost, "/api/v1/logout", access, nil)
	require.Equal(t, http.StatusOK, out.Code)

	// logout twice is not an error
	out = env.do(t, http.MethodPost, "/api/v1/logout", access, nil)
	require.Equal(t, http.StatusOK, out.Code)

	// the revoked refresh token cannot be redeemed
	refreshed := env.do(t, http.MethodPost, "/api/v1/refresh", "", map[string]string{
		"refresh_token": refresh,
	})
	assert.Equal(t, http.StatusUnauthorized, refreshed.Code)
}

func TestMe_RequiresToken(t *testing.T) {
	env := newTestEnv(t)
	access := env.seedUser(t, "alice", "pw1", "trainer")

	rec := env.do(t, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/me", "garbage.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/me", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON(t, rec)
	assert.Equal(t, "alice", resp["username"])
	assert.Equal(t, "trainer", resp["role"])
}
